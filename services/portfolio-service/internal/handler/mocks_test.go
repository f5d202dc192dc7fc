package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/model"
	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/usecase"
)

// MockAuthUsecase is a mock implementation of usecase.AuthUsecase.
type MockAuthUsecase struct {
	mock.Mock
}

func (m *MockAuthUsecase) Login(ctx context.Context, params usecase.LoginParams) (*usecase.AuthResult, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.AuthResult), args.Error(1)
}

func (m *MockAuthUsecase) LoginWithGoogle(
	ctx context.Context,
	params usecase.GoogleLoginParams,
) (*usecase.AuthResult, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.AuthResult), args.Error(1)
}

func (m *MockAuthUsecase) Register(ctx context.Context, params usecase.RegisterParams) (*model.User, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockAuthUsecase) Bootstrap(
	ctx context.Context,
	params usecase.RegisterParams,
	force bool,
) (*model.User, error) {
	args := m.Called(ctx, params, force)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockAuthUsecase) Refresh(ctx context.Context, params usecase.RefreshParams) (*usecase.AuthResult, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.AuthResult), args.Error(1)
}

func (m *MockAuthUsecase) Logout(ctx context.Context, params usecase.LogoutParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *MockAuthUsecase) ChangePassword(ctx context.Context, params usecase.ChangePasswordParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

// MockPasswordResetUsecase is a mock implementation of usecase.PasswordResetUsecase.
type MockPasswordResetUsecase struct {
	mock.Mock
}

func (m *MockPasswordResetUsecase) SendOTP(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *MockPasswordResetUsecase) ResetPassword(ctx context.Context, params usecase.ResetPasswordParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

// MockProfileUsecase is a mock implementation of usecase.ProfileUsecase.
type MockProfileUsecase struct {
	mock.Mock
}

func (m *MockProfileUsecase) GetMe(ctx context.Context, userID string) (*model.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockProfileUsecase) UpdateMe(
	ctx context.Context,
	userID string,
	params usecase.UpdateProfileParams,
) (*model.User, error) {
	args := m.Called(ctx, userID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockProfileUsecase) GetPublicProfile(ctx context.Context) (*usecase.PublicProfile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.PublicProfile), args.Error(1)
}

// MockPublicationUsecase is a mock implementation of usecase.PublicationUsecase.
type MockPublicationUsecase struct {
	mock.Mock
}

func (m *MockPublicationUsecase) CreatePublication(
	ctx context.Context,
	actor usecase.Actor,
	params usecase.CreatePublicationParams,
) (*model.Publication, error) {
	args := m.Called(ctx, actor, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Publication), args.Error(1)
}

func (m *MockPublicationUsecase) GetPublication(ctx context.Context, id string) (*model.Publication, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Publication), args.Error(1)
}

func (m *MockPublicationUsecase) ListPublications(
	ctx context.Context,
	params usecase.ListPublicationsParams,
) (*usecase.PublicationPage, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.PublicationPage), args.Error(1)
}

func (m *MockPublicationUsecase) UpdatePublication(
	ctx context.Context,
	actor usecase.Actor,
	id string,
	params usecase.UpdatePublicationParams,
) (*model.Publication, error) {
	args := m.Called(ctx, actor, id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Publication), args.Error(1)
}

func (m *MockPublicationUsecase) DeletePublication(ctx context.Context, actor usecase.Actor, id string) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

func (m *MockPublicationUsecase) GetPublicationStats(ctx context.Context) (*model.PublicationStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PublicationStats), args.Error(1)
}

// MockContactUsecase is a mock implementation of usecase.ContactUsecase.
type MockContactUsecase struct {
	mock.Mock
}

func (m *MockContactUsecase) SendMessage(ctx context.Context, params usecase.ContactParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}
