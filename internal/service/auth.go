package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/booktrack/booktrack-go/internal/apperr"
	"github.com/booktrack/booktrack-go/internal/crypto"
	"github.com/booktrack/booktrack-go/internal/model"
	"github.com/booktrack/booktrack-go/internal/repository"
)

// Client-facing auth messages.
const (
	MsgUserExists         = "User already exists with this email"
	MsgInvalidCredentials = "Invalid credentials"
	MsgEmailInUse         = "Email already in use"
	MsgUserNotFound       = "User not found"
	MsgTokenInvalid       = "Not authorized. Token invalid or expired."
	MsgTokenUserGone      = "User not found. Token invalid."
)

// UserStore is the persistence the auth service needs.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
}

// Hasher hashes and verifies passwords.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
	VerifyDummy(password string)
}

// AuthService handles authentication business logic.
type AuthService struct {
	repo      UserStore
	hasher    Hasher
	jwtSecret string
	jwtExpiry time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo UserStore, hasher Hasher, secret string, expiry time.Duration) *AuthService {
	return &AuthService{
		repo:      repo,
		hasher:    hasher,
		jwtSecret: secret,
		jwtExpiry: expiry,
	}
}

// Register creates a new user account and returns an auth token.
func (s *AuthService) Register(ctx context.Context, req model.CreateUserRequest) (model.AuthResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)

	if err := validateStruct(&req); err != nil {
		return model.AuthResponse{}, err
	}

	_, err := s.repo.GetByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return model.AuthResponse{}, apperr.Conflict(MsgUserExists)
	case !errors.Is(err, repository.ErrUserNotFound):
		return model.AuthResponse{}, apperr.Internal(fmt.Errorf("looking up email: %w", err))
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return model.AuthResponse{}, apperr.Internal(fmt.Errorf("hashing password: %w", err))
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return model.AuthResponse{}, apperr.Conflict(MsgUserExists)
		}
		return model.AuthResponse{}, apperr.Internal(fmt.Errorf("creating user: %w", err))
	}

	return s.issue(user)
}

// Login authenticates a user and returns an auth token.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	if strings.TrimSpace(req.Password) == "" {
		req.Password = ""
	}

	if err := validateStruct(&req); err != nil {
		return model.AuthResponse{}, err
	}

	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.hasher.VerifyDummy(req.Password)
			return model.AuthResponse{}, apperr.Unauthorized(MsgInvalidCredentials)
		}
		return model.AuthResponse{}, apperr.Internal(fmt.Errorf("looking up email: %w", err))
	}

	match, err := s.hasher.Verify(req.Password, user.PasswordHash)
	if err != nil {
		return model.AuthResponse{}, apperr.Internal(fmt.Errorf("verifying password: %w", err))
	}
	if !match {
		return model.AuthResponse{}, apperr.Unauthorized(MsgInvalidCredentials)
	}

	return s.issue(user)
}

// VerifyToken checks a session token and returns the id of the user it was
// issued to. The user must still exist.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (string, error) {
	claims, err := crypto.ValidateToken(token, s.jwtSecret)
	if err != nil {
		return "", apperr.Unauthorized(MsgTokenInvalid)
	}

	user, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) || errors.Is(err, repository.ErrInvalidID) {
			return "", apperr.Unauthorized(MsgTokenUserGone)
		}
		return "", apperr.Internal(fmt.Errorf("loading token user: %w", err))
	}

	return user.ID, nil
}

// GetPublicProfile returns the public view of a user.
func (s *AuthService) GetPublicProfile(ctx context.Context, userID string) (model.UserResponse, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return model.UserResponse{}, err
	}

	return user.Public(), nil
}

// UpdateProfile changes the provided non-empty fields of a user's profile.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, req model.UpdateProfileRequest) (model.UserResponse, error) {
	req.Name = emptyToNil(trimPtr(req.Name))
	req.Email = emptyToNil(trimPtr(req.Email))

	if err := validateStruct(&req); err != nil {
		return model.UserResponse{}, err
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return model.UserResponse{}, err
	}

	if req.Email != nil && *req.Email != user.Email {
		other, err := s.repo.GetByEmail(ctx, *req.Email)
		switch {
		case err == nil && other.ID != user.ID:
			return model.UserResponse{}, apperr.Conflict(MsgEmailInUse)
		case err != nil && !errors.Is(err, repository.ErrUserNotFound):
			return model.UserResponse{}, apperr.Internal(fmt.Errorf("looking up email: %w", err))
		}
		user.Email = *req.Email
	}
	if req.Name != nil {
		user.Name = *req.Name
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return model.UserResponse{}, apperr.Conflict(MsgEmailInUse)
		}
		return model.UserResponse{}, apperr.Internal(fmt.Errorf("updating user: %w", err))
	}

	return user.Public(), nil
}

func (s *AuthService) getUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) || errors.Is(err, repository.ErrInvalidID) {
			return nil, apperr.NotFound(MsgUserNotFound)
		}
		return nil, apperr.Internal(fmt.Errorf("loading user: %w", err))
	}
	return user, nil
}

func (s *AuthService) issue(user *model.User) (model.AuthResponse, error) {
	token, err := crypto.GenerateToken(user.ID, s.jwtSecret, s.jwtExpiry)
	if err != nil {
		return model.AuthResponse{}, apperr.Internal(fmt.Errorf("issuing token: %w", err))
	}

	return model.AuthResponse{
		Token: token,
		User:  user.Public(),
	}, nil
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
