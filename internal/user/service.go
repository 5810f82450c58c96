package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

type Service interface {
	CreateUser(ctx context.Context, user *User) (*User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateUser(ctx context.Context, user *User) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
	ListUsers(ctx context.Context) ([]User, error)
	// Authenticate checks the password for the account registered under email
	// and returns the user on success.
	Authenticate(ctx context.Context, email, password string) (*User, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// CreateUser hashes the plaintext password carried in PasswordHash before
// persisting.
func (s *service) CreateUser(ctx context.Context, user *User) (*User, error) {
	if user.PasswordHash == "" {
		return nil, errors.New("service: password cannot be empty")
	}
	if user.Role == "" {
		user.Role = RoleUser
	}
	if !user.Role.Valid() {
		return nil, fmt.Errorf("service: invalid role %q", user.Role)
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(user.PasswordHash), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to hash password")
		return nil, fmt.Errorf("service: failed to hash password: %w", err)
	}
	user.PasswordHash = string(hashBytes)

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, ErrEmailExists
		}
		log.Error().Err(err).Msg("service: failed to create user in repository")
		return nil, fmt.Errorf("service: failed to save user: %w", err)
	}

	log.Info().Stringer("user_id", user.ID).Str("role", string(user.Role)).Msg("service: user created")
	return user, nil
}

func (s *service) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Stringer("user_id", id).Msg("service: failed to get user by id")
		return nil, fmt.Errorf("service: failed to get user by id '%s': %w", id, err)
	}
	return u, nil
}

func (s *service) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Msg("service: failed to get user by email")
		return nil, fmt.Errorf("service: failed to get user by email '%s': %w", email, err)
	}
	return u, nil
}

// UpdateUser re-hashes the password when a new one is supplied; an empty
// PasswordHash keeps the stored hash, and an empty Role keeps the stored role.
func (s *service) UpdateUser(ctx context.Context, user *User) error {
	if user.PasswordHash == "" || user.Role == "" {
		current, err := s.repo.GetByID(ctx, user.ID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("service: failed to load user for update: %w", err)
		}
		if user.PasswordHash == "" {
			user.PasswordHash = current.PasswordHash
		} else {
			hashBytes, err := bcrypt.GenerateFromPassword([]byte(user.PasswordHash), bcrypt.DefaultCost)
			if err != nil {
				log.Error().Err(err).Msg("service: failed to hash password")
				return fmt.Errorf("service: failed to hash password: %w", err)
			}
			user.PasswordHash = string(hashBytes)
		}
		if user.Role == "" {
			user.Role = current.Role
		}
	} else {
		hashBytes, err := bcrypt.GenerateFromPassword([]byte(user.PasswordHash), bcrypt.DefaultCost)
		if err != nil {
			log.Error().Err(err).Msg("service: failed to hash password")
			return fmt.Errorf("service: failed to hash password: %w", err)
		}
		user.PasswordHash = string(hashBytes)
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, ErrEmailExists) || errors.Is(err, ErrNotFound) {
			return err
		}
		log.Error().Err(err).Stringer("user_id", user.ID).Msg("service: failed to update user")
		return fmt.Errorf("service: failed to update user '%s': %w", user.ID, err)
	}

	return nil
}

func (s *service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		log.Error().Err(err).Stringer("user_id", id).Msg("service: failed to delete user")
		return fmt.Errorf("service: failed to delete user '%s': %w", id, err)
	}
	return nil
}

func (s *service) ListUsers(ctx context.Context) ([]User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list users")
		return nil, fmt.Errorf("service: failed to list users: %w", err)
	}
	return users, nil
}

func (s *service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("service: failed to look up account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.repo.TouchLastLogin(ctx, u.ID); err != nil {
		log.Warn().Err(err).Stringer("user_id", u.ID).Msg("service: failed to record login time")
	}

	return u, nil
}
