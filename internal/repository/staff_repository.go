package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/boxoffice/internal/model"
	"github.com/iliyamo/boxoffice/internal/utils"
)

// StaffRepo persists box office operators.
type StaffRepo struct{ DB *sql.DB }

func NewStaffRepo(db *sql.DB) *StaffRepo { return &StaffRepo{DB: db} }

// ErrUsernameExists is returned by Create for a taken username.
var ErrUsernameExists = errors.New("username already exists")

// Create hashes the password and inserts a staff row, returning its ID.
func (r *StaffRepo) Create(ctx context.Context, username, password string, cost int) (uint64, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO staff (username, password_hash, created_at) VALUES (?,?,?)",
		username, hash, toMillis(time.Now()))
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrUsernameExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByUsername fetches a staff member by normalized username.
func (r *StaffRepo) GetByUsername(ctx context.Context, username string) (model.Staff, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	return r.get(ctx, "SELECT id,username,password_hash,created_at FROM staff WHERE username=? LIMIT 1", username)
}

// GetByID fetches a staff member by id.
func (r *StaffRepo) GetByID(ctx context.Context, id uint64) (model.Staff, error) {
	return r.get(ctx, "SELECT id,username,password_hash,created_at FROM staff WHERE id=? LIMIT 1", id)
}

func (r *StaffRepo) get(ctx context.Context, q string, arg any) (model.Staff, error) {
	var (
		s         model.Staff
		createdAt int64
	)
	err := r.DB.QueryRowContext(ctx, q, arg).Scan(&s.ID, &s.Username, &s.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Staff{}, ErrNotFound
	}
	if err != nil {
		return model.Staff{}, err
	}
	s.CreatedAt = fromMillis(createdAt)
	return s, nil
}
