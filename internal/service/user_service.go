package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"classsite/internal/auth"
	apperrors "classsite/internal/errors"
	"classsite/internal/model"
	"classsite/internal/repository"
)

// DefaultPasswordMinLength applies when no minimum is configured.
const DefaultPasswordMinLength = 6

// CreateUserInput is the admin request to add a user.
type CreateUserInput struct {
	Account  string     `json:"account" validate:"required,max=64"`
	Name     string     `json:"name" validate:"max=128"`
	Role     model.Role `json:"role" validate:"omitempty,oneof=student teacher admin"`
	Password string     `json:"password" validate:"required"`
	Enabled  *bool      `json:"enabled"`
}

// UpdateUserInput is a partial admin update. Nil fields are left unchanged;
// an empty password is ignored.
type UpdateUserInput struct {
	Name     *string     `json:"name" validate:"omitempty,max=128"`
	Role     *model.Role `json:"role" validate:"omitempty,oneof=student teacher admin"`
	Enabled  *bool       `json:"enabled"`
	Password *string     `json:"password"`
}

// UserService exposes admin user management.
type UserService interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	GetUser(ctx context.Context, id uint) (*model.User, error)
	CreateUser(ctx context.Context, in CreateUserInput) (*model.User, error)
	UpdateUser(ctx context.Context, id uint, in UpdateUserInput) (*model.User, error)
	DeleteUser(ctx context.Context, id uint) error
	ResetPassword(ctx context.Context, id uint, password string) error
	// Unlock clears the lockout ledger for the user's account.
	Unlock(ctx context.Context, id uint) error
	// EnsureAdmin creates an admin account when no admin exists yet.
	EnsureAdmin(ctx context.Context, account, password string) (bool, error)
}

type userService struct {
	repo        repository.UserRepository
	ledger      repository.LoginAttemptRepository
	hasher      auth.PasswordHasher
	log         *logrus.Logger
	minPassword int
}

// NewUserService builds a UserService.
func NewUserService(
	repo repository.UserRepository,
	ledger repository.LoginAttemptRepository,
	hasher auth.PasswordHasher,
	log *logrus.Logger,
	minPassword int,
) UserService {
	if minPassword <= 0 {
		minPassword = DefaultPasswordMinLength
	}
	return &userService{
		repo:        repo,
		ledger:      ledger,
		hasher:      hasher,
		log:         log,
		minPassword: minPassword,
	}
}

func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.repo.List(ctx)
}

func (s *userService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *userService) CreateUser(ctx context.Context, in CreateUserInput) (*model.User, error) {
	account := strings.TrimSpace(in.Account)
	if account == "" {
		return nil, apperrors.Validation("account is required")
	}
	role := in.Role
	if role == "" {
		role = model.RoleStudent
	}
	if !role.Valid() {
		return nil, apperrors.Validation("role must be one of student, teacher, admin")
	}
	if err := s.checkPassword(in.Password); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByAccount(ctx, account)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: account %q", apperrors.ErrConflict, account)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	enabled := true
	if in.Enabled != nil {
		enabled = *in.Enabled
	}
	user := &model.User{
		Account:      account,
		Name:         strings.TrimSpace(in.Name),
		Role:         role,
		PasswordHash: hash,
		Enabled:      enabled,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "account": account, "role": role}).Info("user.created")
	return user, nil
}

func (s *userService) UpdateUser(ctx context.Context, id uint, in UpdateUserInput) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, apperrors.Validation("role must be one of student, teacher, admin")
		}
		user.Role = *in.Role
	}
	if in.Enabled != nil {
		user.Enabled = *in.Enabled
	}
	if in.Password != nil && strings.TrimSpace(*in.Password) != "" {
		password := strings.TrimSpace(*in.Password)
		if err := s.checkPassword(password); err != nil {
			return nil, err
		}
		if user.PasswordHash, err = s.hasher.Hash(password); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.log.WithField("user_id", id).Info("user.updated")
	return user, nil
}

func (s *userService) DeleteUser(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.WithField("user_id", id).Info("user.deleted")
	return nil
}

func (s *userService) ResetPassword(ctx context.Context, id uint, password string) error {
	password = strings.TrimSpace(password)
	if err := s.checkPassword(password); err != nil {
		return err
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if user.PasswordHash, err = s.hasher.Hash(password); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return err
	}
	s.log.WithField("user_id", id).Info("user.password_reset")
	return nil
}

func (s *userService) Unlock(ctx context.Context, id uint) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.ledger.Unlock(ctx, user.Account); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"user_id": id, "account": user.Account}).Info("user.unlocked")
	return nil
}

func (s *userService) EnsureAdmin(ctx context.Context, account, password string) (bool, error) {
	n, err := s.repo.CountByRole(ctx, model.RoleAdmin)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	_, err = s.CreateUser(ctx, CreateUserInput{
		Account:  account,
		Name:     "Administrator",
		Role:     model.RoleAdmin,
		Password: password,
	})
	if err != nil {
		return false, fmt.Errorf("bootstrap admin: %w", err)
	}

	s.log.WithField("account", account).Warn("bootstrap admin created with the default password, change it now")
	return true, nil
}

func (s *userService) checkPassword(password string) error {
	if len(password) < s.minPassword {
		return apperrors.Validation(fmt.Sprintf("password must be at least %d characters", s.minPassword))
	}
	if len(password) > auth.MaxPasswordBytes {
		return apperrors.Validation(fmt.Sprintf("password must be at most %d bytes", auth.MaxPasswordBytes))
	}
	return nil
}
