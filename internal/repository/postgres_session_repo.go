package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/dailydiet/internal/model"
)

// PostgresSessionRepo はPostgreSQLを使用したセッションリポジトリ。
type PostgresSessionRepo struct {
	db *sql.DB
}

// NewPostgresSessionRepo はPostgresSessionRepoを生成する。
func NewPostgresSessionRepo(db *sql.DB) *PostgresSessionRepo {
	return &PostgresSessionRepo{db: db}
}

// Create はセッションを作成する。
func (r *PostgresSessionRepo) Create(ctx context.Context, session *model.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, token, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		session.ID, session.UserID, session.Token, session.ExpiresAt, session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// FindByToken はトークンでセッションを検索する。
// 期限切れでも返すため、有効性の判定は呼び出し側で行う。
func (r *PostgresSessionRepo) FindByToken(ctx context.Context, token string) (*model.Session, error) {
	return r.findOne(ctx,
		`SELECT id, user_id, token, expires_at, created_at
		 FROM sessions
		 WHERE token = $1`,
		token,
	)
}

// FindLatestByUserID はユーザーの最新セッションを返す。
func (r *PostgresSessionRepo) FindLatestByUserID(ctx context.Context, userID string) (*model.Session, error) {
	return r.findOne(ctx,
		`SELECT id, user_id, token, expires_at, created_at
		 FROM sessions
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT 1`,
		userID,
	)
}

func (r *PostgresSessionRepo) findOne(ctx context.Context, query string, arg string) (*model.Session, error) {
	session := &model.Session{}
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&session.ID, &session.UserID, &session.Token, &session.ExpiresAt, &session.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	return session, nil
}

// compile-time interface check
var _ SessionRepository = (*PostgresSessionRepo)(nil)
