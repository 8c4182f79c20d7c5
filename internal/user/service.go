// Package user はユーザー登録とサインインのドメインロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/dailydiet/internal/model"
	"github.com/hitoshi/dailydiet/internal/repository"
)

// SessionIssuer はセッション発行のインターフェース。
type SessionIssuer interface {
	Issue(ctx context.Context, userID string) (*model.Session, error)
	FindOrCreateForUser(ctx context.Context, userID string) (*model.Session, bool, error)
}

// Service はユーザー管理のサービス層。
// 登録とサインインのフローをセッション管理と組み合わせて提供する。
type Service struct {
	userRepo repository.UserRepository
	sessions SessionIssuer
	now      func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository, sessions SessionIssuer) *Service {
	return &Service{
		userRepo: userRepo,
		sessions: sessions,
		now:      time.Now,
	}
}

// Register はユーザーを登録し、最初のセッションを発行する。
// emailは検証済みであること。登録済みの場合は既存ユーザーを変更せずConflictを返す。
func (s *Service) Register(ctx context.Context, email string) (*model.User, *model.Session, error) {
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, nil, model.NewEmailAlreadyRegisteredError()
	}

	now := s.now()
	user := &model.User{
		ID:        uuid.New().String(),
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// 検索と作成の間に同じemailで登録された場合
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, nil, model.NewEmailAlreadyRegisteredError()
		}
		return nil, nil, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	session, err := s.sessions.Issue(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("ユーザーを登録しました",
		slog.String("user_id", user.ID),
	)

	return user, session, nil
}

// SignIn はemailでユーザーを特定し、有効なセッションを返す。
// 最新セッションが有効なら再利用し、期限切れなら新しく発行する。
func (s *Service) SignIn(ctx context.Context, email string) (*model.Session, bool, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, false, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if user == nil {
		return nil, false, model.NewUserNotFoundError()
	}

	session, reused, err := s.sessions.FindOrCreateForUser(ctx, user.ID)
	if err != nil {
		return nil, false, err
	}

	slog.Info("サインインしました",
		slog.String("user_id", user.ID),
		slog.Bool("session_reused", reused),
	)

	return session, reused, nil
}
