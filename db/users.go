package db

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"venue-manager/models"
)

const userColumns = "id, email, password_hash, full_name, role, is_active, created_at"

func scanUser(s scanner) (*models.User, error) {
	var u models.User
	if err := s.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &u.IsActive, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts u and fills in its ID. A taken email yields ErrConflict.
func (m *Manager) CreateUser(ctx context.Context, u *models.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	u.CreatedAt = utc(u.CreatedAt)

	res, err := m.db.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, full_name, role, is_active, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		u.Email, u.PasswordHash, u.FullName, u.Role, u.IsActive, u.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("email %s: %w", u.Email, ErrConflict)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID, err = res.LastInsertId()
	return err
}

func (m *Manager) GetUser(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(m.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}

func (m *Manager) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(m.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email))
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}

// ListUsers returns every account ordered by id.
func (m *Manager) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := m.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUser stores name, role, active flag and password hash of u.
func (m *Manager) UpdateUser(ctx context.Context, u *models.User) error {
	res, err := m.db.ExecContext(ctx,
		"UPDATE users SET full_name = ?, role = ?, is_active = ?, password_hash = ? WHERE id = ?",
		u.FullName, u.Role, u.IsActive, u.PasswordHash, u.ID,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return affected(res, "user")
}

func (m *Manager) DeleteUser(ctx context.Context, id int64) error {
	res, err := m.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return affected(res, "user")
}

func (m *Manager) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := m.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

// DefaultUser is an account created on first start.
type DefaultUser struct {
	Email    string
	FullName string
	Password string
	Role     models.Role
}

// DefaultUsers are seeded into an empty users table.
var DefaultUsers = []DefaultUser{
	{"admin@venue.com", "Administrator", "Admin123!", models.RoleOwner},
	{"manager@venue.com", "Manager", "Manager123!", models.RoleManager},
	{"worker@venue.com", "Pracownik", "Worker123!", models.RoleWorker},
}

// SeedDefaultUsers creates DefaultUsers when no account exists yet. hash turns
// a plain password into its stored form. It returns how many users were made.
func (m *Manager) SeedDefaultUsers(ctx context.Context, hash func(string) (string, error)) (int, error) {
	n, err := m.CountUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		return 0, nil
	}

	for _, d := range DefaultUsers {
		h, err := hash(d.Password)
		if err != nil {
			return 0, fmt.Errorf("hash password for %s: %w", d.Email, err)
		}
		u := &models.User{Email: d.Email, FullName: d.FullName, PasswordHash: h, Role: d.Role, IsActive: true}
		if err := m.CreateUser(ctx, u); err != nil {
			return 0, err
		}
	}
	m.logger.Warn("default users created, change their passwords", zap.Int("count", len(DefaultUsers)))
	return len(DefaultUsers), nil
}
