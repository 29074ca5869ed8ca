package db

import (
	"context"
	"fmt"
	"log/slog"

	"inkpost/internal/models"

	"gorm.io/gorm"
)

// DemoUsers are inserted by Seed into an empty database.
var DemoUsers = []models.User{
	{Name: "John Doe", Email: "john.doe@example.com"},
}

// Seed creates the demo users unless users already exist.
func Seed(ctx context.Context, gdb *gorm.DB) error {
	var count int64
	if err := gdb.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		slog.Info("Users already seeded, skipping", "count", count)
		return nil
	}

	for _, u := range DemoUsers {
		user := u
		if err := gdb.WithContext(ctx).Create(&user).Error; err != nil {
			return fmt.Errorf("create user %s: %w", user.Email, err)
		}
	}
	slog.Info("Initial users created successfully", "count", len(DemoUsers))
	return nil
}
