package grpc

import (
	"context"

	"github.com/dmitrijs2005/eatsauth/internal/common"
	"github.com/dmitrijs2005/eatsauth/internal/server/api"
	"github.com/dmitrijs2005/eatsauth/internal/server/models"
	"github.com/dmitrijs2005/eatsauth/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) Ping(ctx context.Context, req *api.PingRequest) (*api.PingResponse, error) {
	return &api.PingResponse{Status: "OK"}, nil
}

func (s *GRPCServer) CreateAccount(ctx context.Context, req *api.CreateAccountRequest) (*api.CreateAccountResponse, error) {
	role, err := models.ParseRole(req.Role)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	account, err := s.accounts.CreateAccount(ctx, req.Email, req.Password, role)
	if err != nil {
		return nil, toStatus(err)
	}

	s.logger.Info(ctx, "Registered", common.AccountIDLogKey, account.ID)
	return &api.CreateAccountResponse{Account: api.AccountFromModel(account)}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *api.LoginRequest) (*api.LoginResponse, error) {
	token, err := s.accounts.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, toStatus(err)
	}
	return &api.LoginResponse{Token: token}, nil
}

func (s *GRPCServer) VerifyEmail(ctx context.Context, req *api.VerifyEmailRequest) (*api.VerifyEmailResponse, error) {
	account, err := s.accounts.VerifyEmail(ctx, req.Code)
	if err != nil {
		return nil, toStatus(err)
	}
	return &api.VerifyEmailResponse{Account: api.AccountFromModel(account)}, nil
}

func (s *GRPCServer) EditProfile(ctx context.Context, req *api.EditProfileRequest) (*api.EditProfileResponse, error) {
	accountID, ok := AccountIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	account, err := s.accounts.EditProfile(ctx, accountID, services.EditProfileInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return &api.EditProfileResponse{Account: api.AccountFromModel(account)}, nil
}

func (s *GRPCServer) Me(ctx context.Context, req *api.MeRequest) (*api.MeResponse, error) {
	accountID, ok := AccountIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	account, err := s.accounts.Profile(ctx, accountID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &api.MeResponse{Account: api.AccountFromModel(account)}, nil
}
