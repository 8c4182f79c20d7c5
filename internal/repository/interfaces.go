// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/dailydiet/internal/model"
)

// ErrDuplicateEmail は同一メールアドレスのユーザーが既に存在する場合に返される。
var ErrDuplicateEmail = errors.New("email already registered")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成する。
	// emailが既に存在する場合は既存レコードを変更せずErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
// 有効期限の判定は行わない。期限切れのセッションもそのまま返す。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error

	// FindByToken はトークンでセッションを検索する。見つからない場合はnilを返す。
	FindByToken(ctx context.Context, token string) (*model.Session, error)

	// FindLatestByUserID はユーザーの最新セッションを返す。存在しない場合はnilを返す。
	FindLatestByUserID(ctx context.Context, userID string) (*model.Session, error)
}

// MealFilter は食事件数の絞り込み条件。
// IsWithinDietがnilの場合は遵守状況で絞り込まない。
type MealFilter struct {
	AuthorID     string
	IsWithinDiet *bool
}

// MealRepository は食事データの永続化インターフェース。
type MealRepository interface {
	// Create は食事を作成する。
	Create(ctx context.Context, meal *model.Meal) error

	// FindByID は指定IDの食事を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Meal, error)

	// Update は食事の内容を上書き更新する。対象が存在しない場合はfalseを返す。
	Update(ctx context.Context, meal *model.Meal) (bool, error)

	// Delete は指定IDの食事を削除する。対象が存在しない場合はfalseを返す。
	Delete(ctx context.Context, id string) (bool, error)

	// ListByAuthor はユーザーの食事をmeal_time昇順（同時刻はcreated_at昇順）で返す。
	// 食事がない場合は空スライスを返す。
	ListByAuthor(ctx context.Context, authorID string) ([]*model.Meal, error)

	// Count はフィルタに一致する食事の件数を返す。
	Count(ctx context.Context, filter MealFilter) (int, error)
}
