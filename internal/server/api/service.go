// Package api declares the eatsauth gRPC service: request and response
// messages, the service descriptor, a JSON codec and a typed client.
package api

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "eatsauth.AccountService"

const (
	MethodPing          = "Ping"
	MethodCreateAccount = "CreateAccount"
	MethodLogin         = "Login"
	MethodVerifyEmail   = "VerifyEmail"
	MethodEditProfile   = "EditProfile"
	MethodMe            = "Me"
)

// FullMethod returns the gRPC full method name, e.g.
// "/eatsauth.AccountService/Login".
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// AccountServiceServer is implemented by the server side of the service.
type AccountServiceServer interface {
	Ping(context.Context, *PingRequest) (*PingResponse, error)
	CreateAccount(context.Context, *CreateAccountRequest) (*CreateAccountResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	VerifyEmail(context.Context, *VerifyEmailRequest) (*VerifyEmailResponse, error)
	EditProfile(context.Context, *EditProfileRequest) (*EditProfileResponse, error)
	Me(context.Context, *MeRequest) (*MeResponse, error)
}

// RegisterAccountServiceServer registers srv on s.
func RegisterAccountServiceServer(s grpc.ServiceRegistrar, srv AccountServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AccountServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodPing, AccountServiceServer.Ping),
		unary(MethodCreateAccount, AccountServiceServer.CreateAccount),
		unary(MethodLogin, AccountServiceServer.Login),
		unary(MethodVerifyEmail, AccountServiceServer.VerifyEmail),
		unary(MethodEditProfile, AccountServiceServer.EditProfile),
		unary(MethodMe, AccountServiceServer.Me),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "eatsauth/account_service",
}

func unary[Req, Resp any](method string, call func(AccountServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(AccountServiceServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
