package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/maggiegpt/server/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

type UserRepository struct {
	db *Connection
}

func NewUserRepository(db *Connection) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

const userColumns = `id, name, email, password_hash, google_id, email_verified,
			  verification_code, verification_code_expires_at, last_verification_sent_at,
			  two_factor_code, two_factor_code_expires_at,
			  reset_token, reset_token_expires_at, created_at, updated_at`

func scanUser(row pgx.Row) (model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.GoogleID, &user.EmailVerified,
		&user.VerificationCode, &user.VerificationCodeExpiresAt, &user.LastVerificationSentAt,
		&user.TwoFactorCode, &user.TwoFactorCodeExpiresAt,
		&user.ResetToken, &user.ResetTokenExpiresAt, &user.CreatedAt, &user.UpdatedAt,
	)
	return user, err
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

func (r *UserRepository) GetByResetToken(ctx context.Context, token string) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE reset_token = $1 AND reset_token <> ''`

	user, err := scanUser(r.db.QueryRow(ctx, query, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by reset token: %w", err)
	}

	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user model.User) (model.User, error) {
	query := `INSERT INTO users (` + userColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			  RETURNING ` + userColumns

	savedUser, err := scanUser(r.db.QueryRow(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.GoogleID, user.EmailVerified,
		user.VerificationCode, user.VerificationCodeExpiresAt, user.LastVerificationSentAt,
		user.TwoFactorCode, user.TwoFactorCodeExpiresAt,
		user.ResetToken, user.ResetTokenExpiresAt, user.CreatedAt, user.UpdatedAt,
	))
	if err != nil {
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return savedUser, nil
}

func (r *UserRepository) Update(ctx context.Context, user model.User) (model.User, error) {
	query := `UPDATE users
			  SET name = $2, email = $3, password_hash = $4, google_id = $5, email_verified = $6,
				  verification_code = $7, verification_code_expires_at = $8, last_verification_sent_at = $9,
				  two_factor_code = $10, two_factor_code_expires_at = $11,
				  reset_token = $12, reset_token_expires_at = $13, updated_at = $14
			  WHERE id = $1
			  RETURNING ` + userColumns

	savedUser, err := scanUser(r.db.QueryRow(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.GoogleID, user.EmailVerified,
		user.VerificationCode, user.VerificationCodeExpiresAt, user.LastVerificationSentAt,
		user.TwoFactorCode, user.TwoFactorCodeExpiresAt,
		user.ResetToken, user.ResetTokenExpiresAt, user.UpdatedAt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to update user: %w", err)
	}

	return savedUser, nil
}
