package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/ventionteams/medfast-credentials/internal/auth/domain"
	"github.com/ventionteams/medfast-credentials/internal/common/db"
)

type EphemeralTokenRepository interface {
	Create(ctx context.Context, token domain.EphemeralToken) error
	// FindByOwnerAndValue returns the oldest token of the purpose that
	// belongs to the user with the given email and carries value.
	FindByOwnerAndValue(ctx context.Context, purpose domain.Purpose, email, value string) (domain.EphemeralToken, error)
	ExistsForOwner(ctx context.Context, purpose domain.Purpose, email string) (bool, error)
	// DeleteByID reports whether a row was actually removed, which makes it
	// the single-use arbiter between concurrent consumers.
	DeleteByID(ctx context.Context, id string) (bool, error)
	DeleteCreatedBefore(ctx context.Context, purpose domain.Purpose, cutoff time.Time) (int64, error)
}

type PgEphemeralTokenRepository struct {
	pool *pgxpool.Pool
}

func NewPgEphemeralTokenRepository(pool *pgxpool.Pool) *PgEphemeralTokenRepository {
	return &PgEphemeralTokenRepository{pool: pool}
}

func (r *PgEphemeralTokenRepository) Create(ctx context.Context, token domain.EphemeralToken) error {
	start := time.Now()
	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO ephemeral_tokens (id, user_id, purpose, value, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		token.ID,
		string(token.UserID),
		string(token.Purpose),
		token.Value,
		token.CreatedAt,
	)
	return db.HandleExecError(err, "create ephemeral token", start)
}

func (r *PgEphemeralTokenRepository) FindByOwnerAndValue(ctx context.Context, purpose domain.Purpose, email, value string) (domain.EphemeralToken, error) {
	start := time.Now()
	row := r.pool.QueryRow(
		ctx,
		`SELECT t.id, t.user_id, t.purpose, t.value, t.created_at
		 FROM ephemeral_tokens t
		 JOIN users u ON u.id = t.user_id
		 WHERE t.purpose = $1 AND u.email = $2 AND t.value = $3
		 ORDER BY t.created_at ASC
		 LIMIT 1`,
		string(purpose),
		email,
		value,
	)

	var (
		token   domain.EphemeralToken
		userID  string
		purpStr string
	)
	err := row.Scan(&token.ID, &userID, &purpStr, &token.Value, &token.CreatedAt)
	if err := db.HandleQueryError(err, ErrEphemeralTokenNotFound, "find ephemeral token", start); err != nil {
		return domain.EphemeralToken{}, err
	}
	token.UserID = domain.UserID(userID)
	token.Purpose = domain.Purpose(purpStr)
	return token, nil
}

func (r *PgEphemeralTokenRepository) ExistsForOwner(ctx context.Context, purpose domain.Purpose, email string) (bool, error) {
	start := time.Now()
	row := r.pool.QueryRow(
		ctx,
		`SELECT EXISTS (
		 	SELECT 1
		 	FROM ephemeral_tokens t
		 	JOIN users u ON u.id = t.user_id
		 	WHERE t.purpose = $1 AND u.email = $2
		 )`,
		string(purpose),
		email,
	)

	var exists bool
	err := row.Scan(&exists)
	if err := db.HandleQueryError(err, nil, "check ephemeral tokens for owner", start); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PgEphemeralTokenRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	start := time.Now()
	tag, err := r.pool.Exec(
		ctx,
		`DELETE FROM ephemeral_tokens WHERE id = $1`,
		id,
	)
	if err := db.HandleExecError(err, "delete ephemeral token", start); err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PgEphemeralTokenRepository) DeleteCreatedBefore(ctx context.Context, purpose domain.Purpose, cutoff time.Time) (int64, error) {
	start := time.Now()
	tag, err := r.pool.Exec(
		ctx,
		`DELETE FROM ephemeral_tokens WHERE purpose = $1 AND created_at < $2`,
		string(purpose),
		cutoff,
	)
	if err := db.HandleExecError(err, "delete expired ephemeral tokens", start); err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
