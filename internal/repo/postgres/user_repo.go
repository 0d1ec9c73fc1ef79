package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/authcraft/account-service/internal/domain"
)

// UserRepository is the credential store: one row per user holding
// identity, password hash and the current OTP state.
type UserRepository interface {
	Create(ctx context.Context, req *domain.RegisterRequest, passwordHash string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateProfile(ctx context.Context, email string, req *domain.UpdateProfileRequest) error
	SetOTP(ctx context.Context, email, code string) error
	SetPasswordHash(ctx context.Context, email, hash string) error
	CountByEmail(ctx context.Context, email string) (int, error)
	ConsumeOTP(ctx context.Context, email, code string) (bool, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userCols = `id, first_name, last_name, email, mobile, password_hash, otp, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Mobile, &u.PasswordHash, &u.OTP, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) Create(ctx context.Context, req *domain.RegisterRequest, passwordHash string) (*domain.User, error) {
	const q = `
		INSERT INTO users (first_name, last_name, email, mobile, password_hash, otp)
		VALUES ($1, $2, $3, $4, $5, '0')
		RETURNING ` + userCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	u, err := scanUser(r.pool.QueryRow(ctx, q, req.FirstName, req.LastName, req.Email, req.Mobile, passwordHash))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, err
	}

	return u, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE email = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	u, err := scanUser(r.pool.QueryRow(ctx, q, email))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func (r *userRepository) UpdateProfile(ctx context.Context, email string, req *domain.UpdateProfileRequest) error {
	const q = `
		UPDATE users
		SET
			first_name = COALESCE($2, first_name),
			last_name = COALESCE($3, last_name),
			mobile = COALESCE($4, mobile),
			updated_at = now()
		WHERE email = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, email, req.FirstName, req.LastName, req.Mobile)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *userRepository) SetOTP(ctx context.Context, email, code string) error {
	const q = `UPDATE users SET otp = $2, updated_at = now() WHERE email = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, email, code)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *userRepository) SetPasswordHash(ctx context.Context, email, hash string) error {
	const q = `UPDATE users SET password_hash = $2, updated_at = now() WHERE email = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, email, hash)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *userRepository) CountByEmail(ctx context.Context, email string) (int, error) {
	const q = `SELECT count(*) FROM users WHERE email = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var count int
	err := r.pool.QueryRow(ctx, q, email).Scan(&count)
	return count, err
}

// ConsumeOTP atomically matches and burns the stored code in one
// conditional update, so two concurrent verify attempts with the same
// code cannot both succeed.
func (r *userRepository) ConsumeOTP(ctx context.Context, email, code string) (bool, error) {
	const q = `
		UPDATE users
		SET otp = '0', updated_at = now()
		WHERE email = $1 AND otp = $2 AND otp <> '0'`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, email, code)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() == 1, nil
}
