// Package grpc exposes AccountService over gRPC with a JSON codec,
// access-token authentication, Prometheus metrics and OpenTelemetry
// tracing.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/eatsauth/internal/logging"
	"github.com/dmitrijs2005/eatsauth/internal/server/api"
	"github.com/dmitrijs2005/eatsauth/internal/server/models"
	"github.com/dmitrijs2005/eatsauth/internal/server/services"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
)

// AccountService is the business API served by GRPCServer.
type AccountService interface {
	CreateAccount(ctx context.Context, email, password string, role models.Role) (*models.Account, error)
	Login(ctx context.Context, email, password string) (string, error)
	VerifyEmail(ctx context.Context, code string) (*models.Account, error)
	EditProfile(ctx context.Context, accountID string, in services.EditProfileInput) (*models.Account, error)
	Profile(ctx context.Context, accountID string) (*models.Account, error)
}

// TokenValidator maps an access token to the account id it was issued for.
type TokenValidator interface {
	Validate(token string) (string, error)
}

type GRPCServer struct {
	address  string
	accounts AccountService
	tokens   TokenValidator
	metrics  *Metrics
	logger   logging.Logger
}

var _ api.AccountServiceServer = (*GRPCServer)(nil)

// NewGRPCServer wires the handlers. metrics may be nil.
func NewGRPCServer(address string, l logging.Logger, accounts AccountService, tokens TokenValidator, metrics *Metrics) *GRPCServer {
	return &GRPCServer{
		address:  address,
		accounts: accounts,
		tokens:   tokens,
		metrics:  metrics,
		logger:   l.With("module", "grpc_server"),
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	interceptors := []grpc.UnaryServerInterceptor{}
	if s.metrics != nil {
		interceptors = append(interceptors, s.metrics.UnaryInterceptor)
	}
	interceptors = append(interceptors, s.loggingInterceptor, s.accessTokenInterceptor)

	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(interceptors...),
	)
	api.RegisterAccountServiceServer(srv, s)
	return srv
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done, then stops
// gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}
