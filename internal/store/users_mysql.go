package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/shinelstudios/website-sub000/internal/model"
)

// MySQLUserStore serves provisioned users from the studio's existing MySQL
// user table. Optional backend: wired only when DB_HOST is configured.
type MySQLUserStore struct {
	db *sql.DB
}

func NewMySQLUserStore(db *sql.DB) *MySQLUserStore { return &MySQLUserStore{db: db} }

func (s *MySQLUserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := s.db.QueryRowContext(ctx,
		"SELECT email, password_hash, role, first_name, last_name FROM users WHERE email=? LIMIT 1",
		strings.ToLower(email),
	).Scan(&u.Email, &u.PasswordHash, &u.Role, &u.FirstName, &u.LastName)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
