package services

import (
	"context"
	"errors"
	"strings"

	"blog-system/backend/app/models"
	"blog-system/backend/app/repo"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	usernameMaxLen = 191
	passwordMinLen = 6
)

type UserService struct{ users *repo.UserRepository }

func NewUserService(users *repo.UserRepository) *UserService { return &UserService{users: users} }

// EnsureAdmin creates an Admin account with the given credentials unless the
// username already exists.
func (s *UserService) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	count, err := s.users.CountByUsername(ctx, username)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	_, err = s.CreateUser(ctx, username, password, models.RoleAdmin)
	return err
}

// CreateUser stores a new account. An empty role means RoleUser.
func (s *UserService) CreateUser(ctx context.Context, username, password, role string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}
	switch {
	case role == "" || strings.EqualFold(role, models.RoleUser):
		role = models.RoleUser
	case strings.EqualFold(role, models.RoleAdmin):
		role = models.RoleAdmin
	default:
		return nil, ValidationErrors{"Role": "Role must be User or Admin."}
	}
	count, err := s.users.CountByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrUsernameTaken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &models.User{Username: username, PasswordHash: string(hash), Role: role}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return u, nil
}

func (s *UserService) Register(ctx context.Context, username, password string) (*models.User, error) {
	return s.CreateUser(ctx, username, password, models.RoleUser)
}

// ValidateCredentials returns ErrInvalidCredentials for an unknown user and
// for a wrong password alike.
func (s *UserService) ValidateCredentials(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *UserService) FindByID(ctx context.Context, id uint) (*models.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

func validateCredentials(username, password string) error {
	verrs := ValidationErrors{}
	switch {
	case username == "":
		verrs["Username"] = "The Username field is required."
	case len(username) > usernameMaxLen:
		verrs["Username"] = "The field Username must be a string with a maximum length of 191."
	}
	if len(password) < passwordMinLen {
		verrs["Password"] = "The Password must be at least 6 characters long."
	}
	if len(verrs) > 0 {
		return verrs
	}
	return nil
}
