package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/iliyamo/boxoffice/internal/repository"
)

// SeedStaff makes sure the configured operator account exists.  An
// existing account is left as is, so changing STAFF_PASSWORD later has no
// effect on it.
func SeedStaff(ctx context.Context, repo *repository.StaffRepo, username, password string, cost int, log *slog.Logger) error {
	const op = "service.SeedStaff"

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		log.Warn("no staff account configured; staff endpoints are unusable until one is created")
		return nil
	}
	if _, err := repo.GetByUsername(ctx, username); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}
	id, err := repo.Create(ctx, username, password, cost)
	if errors.Is(err, repository.ErrUsernameExists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Info("staff account created", slog.Uint64("staff_id", id), slog.String("username", strings.ToLower(username)))
	return nil
}
