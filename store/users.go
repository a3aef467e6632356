package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"agiletrack/apperr"
	"agiletrack/models"
)

// CreateUser registers a new user and, in the same transaction, creates their
// default board and records them as its owner. Either everything lands or
// nothing does.
func (s *Store) CreateUser(ctx context.Context, name, email, password string) (models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.User{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE email = ?", email).Scan(&count); err != nil {
		return models.User{}, fmt.Errorf("check email: %w", err)
	}
	if count > 0 {
		return models.User{}, apperr.ErrDuplicateEmail
	}

	res, err := tx.ExecContext(ctx, "INSERT INTO users (name, email, password_hash) VALUES (?, ?, ?)", name, email, string(hash))
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, apperr.ErrDuplicateEmail
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	userID, err := res.LastInsertId()
	if err != nil {
		return models.User{}, fmt.Errorf("user id: %w", err)
	}

	boardID, err := insertBoard(ctx, tx, models.DefaultBoard())
	if err != nil {
		return models.User{}, err
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO board_owners (board_id, owner_id) VALUES (?, ?)", boardID, userID); err != nil {
		return models.User{}, fmt.Errorf("insert ownership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.User{}, fmt.Errorf("commit signup: %w", err)
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "board_id": boardID}).Info("user created with default board")
	return models.User{ID: int(userID), Name: name, Email: email, PasswordHash: string(hash)}, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (models.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		"SELECT id, name, email, password_hash FROM users WHERE email = ?", email))
}

func (s *Store) UserByID(ctx context.Context, id int) (models.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		"SELECT id, name, email, password_hash FROM users WHERE id = ?", id))
}

func (s *Store) scanUser(row *sql.Row) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, apperr.ErrUserNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

// VerifyPassword compares the candidate against the stored bcrypt hash.
// bcrypt's comparison is constant-time.
func (s *Store) VerifyPassword(user models.User, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(candidate)) == nil
}

// Authenticate resolves the user by email and checks the password. Unknown
// email and wrong password are deliberately indistinguishable to the caller.
func (s *Store) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	user, err := s.UserByEmail(ctx, email)
	if errors.Is(err, apperr.ErrUserNotFound) {
		return models.User{}, apperr.ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, err
	}
	if !s.VerifyPassword(user, password) {
		return models.User{}, apperr.ErrInvalidCredentials
	}
	return user, nil
}
