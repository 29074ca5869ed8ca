package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"inkpost/internal/db"
	apperrors "inkpost/internal/errors"
	"inkpost/internal/models"

	"gorm.io/gorm"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(gdb *gorm.DB) *UserService {
	return &UserService{db: gdb}
}

// EnsureUser returns the user with email, creating it on first sign-in.
// A changed display name is written back.
func (s *UserService) EnsureUser(ctx context.Context, email, name string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if email == "" {
		return nil, apperrors.Validation("email is required")
	}
	tx := s.db.WithContext(ctx)

	var user models.User
	err := tx.Where("email = ?", email).Take(&user).Error
	switch {
	case err == nil:
		if name != "" && name != user.Name {
			if err := tx.Model(&user).Update("name", name).Error; err != nil {
				return nil, fmt.Errorf("update user name: %w", err)
			}
		}
		return &user, nil
	case !apperrors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	user = models.User{Email: email, Name: name}
	if err := tx.Create(&user).Error; err != nil {
		if !db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("create user: %w", err)
		}
		// another request signed the same user in first
		user = models.User{}
		if err := tx.Where("email = ?", email).Take(&user).Error; err != nil {
			return nil, fmt.Errorf("re-read user: %w", err)
		}
		return &user, nil
	}

	slog.Info("User created", "user_id", user.ID, "email", email)
	return &user, nil
}

// Get loads a user by id.
func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if apperrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("User not found")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &user, nil
}
