package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"leavestride/internal/domain/holidays"
	"leavestride/internal/domain/users"
	"leavestride/internal/platform/config"
)

// Seed is idempotent and works against any store driver.
func Seed(ctx context.Context, cfg config.Config, directory *users.Service, registry *holidays.Service) error {
	if err := ensureAdminUser(ctx, directory, cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
		return err
	}
	if cfg.SeedHolidayRegion != "" {
		year := time.Now().In(cfg.Location()).Year()
		for _, y := range []int{year, year + 1} {
			created, err := registry.ImportNational(ctx, "", cfg.SeedHolidayRegion, y)
			if err != nil {
				return fmt.Errorf("seed %s holidays for %d: %w", cfg.SeedHolidayRegion, y, err)
			}
			if len(created) > 0 {
				slog.Info("holidays seeded", "region", strings.ToUpper(cfg.SeedHolidayRegion), "year", y, "count", len(created))
			}
		}
	}
	return nil
}

func ensureAdminUser(ctx context.Context, directory *users.Service, email, password string) error {
	if strings.TrimSpace(email) == "" {
		return nil
	}
	if _, err := directory.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, users.ErrNotFound) {
		return err
	}

	u, temp, err := directory.Create(ctx, users.Actor{Role: users.RoleAdmin}, users.CreateInput{
		FirstName:  "System",
		LastName:   "Administrator",
		Email:      email,
		Password:   password,
		Role:       users.RoleAdmin,
		Department: "HR",
	})
	if errors.Is(err, users.ErrEmailTaken) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}
	slog.Info("admin user seeded", "user_id", u.ID, "email", u.Email, "generated_password", temp != "")
	return nil
}
