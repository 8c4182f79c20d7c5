// Package auth はセッションの発行・検証とライフサイクル管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/dailydiet/internal/model"
	"github.com/hitoshi/dailydiet/internal/repository"
)

// DefaultSessionMaxAge はセッションのデフォルト有効期間（7日）。
const DefaultSessionMaxAge = 7 * 24 * time.Hour

// SessionRecorder はセッション発行・再利用の計測インターフェース。
type SessionRecorder interface {
	RecordSessionIssued()
	RecordSessionReused()
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge time.Duration // セッション有効期間。0以下の場合はDefaultSessionMaxAge
}

// Service はセッションの発行・検証を行う。
// セッションの状態はキャッシュせず、検証のたびにリポジトリを参照する。
type Service struct {
	sessionRepo repository.SessionRepository
	config      ServiceConfig
	recorder    SessionRecorder
	now         func() time.Time
}

// Option はServiceの任意設定。
type Option func(*Service)

// WithClock は現在時刻の取得関数を差し替える。
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRecorder はセッション計測の記録先を設定する。
func WithRecorder(r SessionRecorder) Option {
	return func(s *Service) { s.recorder = r }
}

// NewService はServiceを生成する。
func NewService(sessionRepo repository.SessionRepository, config ServiceConfig, opts ...Option) *Service {
	if config.SessionMaxAge <= 0 {
		config.SessionMaxAge = DefaultSessionMaxAge
	}
	s := &Service{
		sessionRepo: sessionRepo,
		config:      config,
		recorder:    noopRecorder{},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SessionMaxAge はセッションの有効期間を返す。Cookieの有効期間に使用する。
func (s *Service) SessionMaxAge() time.Duration {
	return s.config.SessionMaxAge
}

// Issue は新しいセッションを発行し永続化する。
// トークンのCookieへの設定は呼び出し側の責務。
func (s *Service) Issue(ctx context.Context, userID string) (*model.Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	now := s.now()
	session := &model.Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		Token:     token,
		ExpiresAt: now.Add(s.config.SessionMaxAge),
		CreatedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.recorder.RecordSessionIssued()
	slog.Info("session issued",
		slog.String("user_id", userID),
		slog.String("session_id", session.ID),
	)

	return session, nil
}

// Validate はトークンでセッションを検索する。
// 見つからない場合はnilを返す。期限切れでも返すため、有効性はIsLiveで判定すること。
func (s *Service) Validate(ctx context.Context, token string) (*model.Session, error) {
	session, err := s.sessionRepo.FindByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return session, nil
}

// IsLive はセッションが有効かどうかを返す。
// now < ExpiresAt のときのみtrue（ExpiresAtちょうどは期限切れ）。
func (s *Service) IsLive(session *model.Session) bool {
	return session != nil && s.now().Before(session.ExpiresAt)
}

// FindLatestForUser はユーザーの最新セッションを返す。存在しない場合はnilを返す。
func (s *Service) FindLatestForUser(ctx context.Context, userID string) (*model.Session, error) {
	session, err := s.sessionRepo.FindLatestByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find latest session: %w", err)
	}
	return session, nil
}

// FindOrCreateForUser はサインイン時のセッションを決定する。
// 最新セッションが有効な場合のみ再利用し、存在しないか期限切れの場合は新しく発行する。
// 2つ目の戻り値は既存セッションを再利用したかどうか。
func (s *Service) FindOrCreateForUser(ctx context.Context, userID string) (*model.Session, bool, error) {
	latest, err := s.FindLatestForUser(ctx, userID)
	if err != nil {
		return nil, false, err
	}

	if s.IsLive(latest) {
		s.recorder.RecordSessionReused()
		return latest, true, nil
	}

	session, err := s.Issue(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	return session, false, nil
}

// Authenticate はリクエストのセッショントークンを検証する。
// トークンが空の場合はUnauthenticated、見つからないか期限切れの場合はSessionExpiredを返す。
func (s *Service) Authenticate(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, model.NewUnauthenticatedError()
	}

	session, err := s.Validate(ctx, token)
	if err != nil {
		return nil, err
	}
	if !s.IsLive(session) {
		return nil, model.NewSessionExpiredError()
	}

	return session, nil
}

// generateToken は暗号的に安全なセッショントークンを生成する（256bit）。
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

type noopRecorder struct{}

func (noopRecorder) RecordSessionIssued() {}
func (noopRecorder) RecordSessionReused() {}
