package service

import (
	"context"
	"errors"

	"aicoach/internal/model"
	"aicoach/internal/repository"
	"aicoach/pkg/rbac"
	"aicoach/pkg/util"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type AuthService struct {
	userRepo  *repository.UserRepository
	jwtSecret string
}

func NewAuthService(userRepo *repository.UserRepository, jwtSecret string) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
	}
}

// Register creates a user and returns its id.
func (s *AuthService) Register(ctx context.Context, email, password, timezone string) (int, error) {
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return 0, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return 0, err
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return 0, err
	}

	if timezone == "" {
		timezone = "UTC"
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		Role:         rbac.RoleUser,
		Timezone:     timezone,
	}
	return s.userRepo.Insert(ctx, user)
}

// Login verifies credentials and returns a signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if !util.CheckPassword(password, user.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	return util.GenerateJWT(user.ID, s.jwtSecret)
}
