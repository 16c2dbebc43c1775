package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rl1809/garage-ledger/internal/core/domain"
	"github.com/rl1809/garage-ledger/internal/port"
)

type UserInput struct {
	Name     string
	Email    string
	JobTitle string
	Role     domain.Role
}

type UserService struct {
	db  port.UserRepository
	log *zap.Logger
	now func() time.Time
}

func NewUserService(db port.UserRepository, log *zap.Logger) *UserService {
	return &UserService{
		db:  db,
		log: log,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Create adds a user on behalf of an owner.
func (s *UserService) Create(ctx context.Context, caller domain.Session, in UserInput) (*domain.User, error) {
	if !domain.HasRole(caller, domain.RoleOwner) {
		return nil, domain.ErrForbidden
	}
	return s.Register(ctx, in)
}

// Register adds a user without a caller check. It backs the admin CLI used
// to bootstrap the first owner.
func (s *UserService) Register(ctx context.Context, in UserInput) (*domain.User, error) {
	user := domain.User{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(in.Name),
		Email:     domain.NormalizeEmail(in.Email),
		JobTitle:  strings.TrimSpace(in.JobTitle),
		Role:      in.Role,
		CreatedAt: s.now(),
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	if err := s.db.CreateUser(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			s.log.Info("user already exists", zap.String("email", user.Email))
		}
		return nil, err
	}

	s.log.Info("user created", zap.String("id", user.ID), zap.String("role", string(user.Role)))
	return &user, nil
}

func (s *UserService) List(ctx context.Context, caller domain.Session) ([]domain.User, error) {
	if !domain.HasRole(caller, domain.RoleOwner, domain.RoleManager) {
		return nil, domain.ErrForbidden
	}
	return s.db.ListUsers(ctx)
}

func (s *UserService) SetRole(ctx context.Context, caller domain.Session, id string, role domain.Role) error {
	if !domain.HasRole(caller, domain.RoleOwner) {
		return domain.ErrForbidden
	}
	if !role.Valid() {
		return domain.Invalid("role", "unknown role "+string(role))
	}
	if id == caller.UserID && role != domain.RoleOwner {
		return domain.Invalid("role", "owners cannot demote themselves")
	}
	return s.db.UpdateUserRole(ctx, id, role)
}

// Resolve turns the e-mail asserted by the upstream authenticator into a
// session. Unknown addresses are unauthenticated, not missing records.
func (s *UserService) Resolve(ctx context.Context, email string) (domain.Session, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return domain.Session{}, domain.ErrUnauthenticated
	}

	user, err := s.db.GetUserByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Session{}, fmt.Errorf("%s: %w", email, domain.ErrUnauthenticated)
	}
	if err != nil {
		return domain.Session{}, err
	}

	return domain.Session{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		StartedAt: s.now(),
	}, nil
}
