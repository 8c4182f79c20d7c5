// Package meal は食事記録の作成・参照・更新・削除を提供する。
package meal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/dailydiet/internal/model"
	"github.com/hitoshi/dailydiet/internal/repository"
	"github.com/hitoshi/dailydiet/internal/security"
)

// 書き込み操作の種別。メトリクスのラベルに使用する。
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// StructValidator はstructタグによる入力検証のインターフェース。
type StructValidator interface {
	Struct(s any) error
}

// WriteRecorder は食事の書き込み件数の計測インターフェース。
type WriteRecorder interface {
	RecordMealWrite(op string)
}

// Config はLedgerの設定。
type Config struct {
	// MealTimeRequired がfalseの場合、mealTime省略時は作成時刻を使う
	MealTimeRequired bool
}

// Ledger は食事記録のサービス層。
// 更新と削除は作成者本人のみ実行できる。
type Ledger struct {
	mealRepo  repository.MealRepository
	sanitizer security.TextSanitizer
	validator StructValidator
	recorder  WriteRecorder
	config    Config
	now       func() time.Time
}

// NewLedger はLedgerの新しいインスタンスを生成する。
// recorderはnilでもよい。
func NewLedger(
	mealRepo repository.MealRepository,
	sanitizer security.TextSanitizer,
	validator StructValidator,
	recorder WriteRecorder,
	config Config,
) *Ledger {
	return &Ledger{
		mealRepo:  mealRepo,
		sanitizer: sanitizer,
		validator: validator,
		recorder:  recorder,
		config:    config,
		now:       time.Now,
	}
}

// Create は食事を記録する。nameとdescriptionはマークアップを除去してから検証する。
func (l *Ledger) Create(ctx context.Context, authorID string, input model.MealInput) (*model.Meal, error) {
	input.Name = l.sanitizer.Sanitize(input.Name)
	input.Description = l.sanitizer.Sanitize(input.Description)

	if err := l.validator.Struct(input); err != nil {
		return nil, err
	}

	now := l.now()
	mealTime := now
	if input.MealTime != nil {
		mealTime = *input.MealTime
	} else if l.config.MealTimeRequired {
		return nil, model.NewValidationError("mealTime: 必須項目です")
	}

	meal := &model.Meal{
		ID:           uuid.New().String(),
		AuthorID:     authorID,
		Name:         input.Name,
		Description:  input.Description,
		MealTime:     mealTime.UTC(),
		IsWithinDiet: input.IsWithinDiet,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := l.mealRepo.Create(ctx, meal); err != nil {
		return nil, fmt.Errorf("食事の作成に失敗しました: %w", err)
	}

	l.record(OpCreate)
	slog.Info("食事を記録しました",
		slog.String("user_id", authorID),
		slog.String("meal_id", meal.ID),
	)

	return meal, nil
}

// Get は指定IDの食事を返す。認証済みであれば作成者以外も参照できる。
func (l *Ledger) Get(ctx context.Context, mealID string) (*model.Meal, error) {
	meal, err := l.mealRepo.FindByID(ctx, mealID)
	if err != nil {
		return nil, fmt.Errorf("食事の取得に失敗しました: %w", err)
	}
	if meal == nil {
		return nil, model.NewMealNotFoundError(mealID)
	}
	return meal, nil
}

// ListByUser はユーザーの食事をmealTime昇順で返す。食事がなければ空スライスを返す。
func (l *Ledger) ListByUser(ctx context.Context, authorID string) ([]*model.Meal, error) {
	meals, err := l.mealRepo.ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("食事一覧の取得に失敗しました: %w", err)
	}
	if meals == nil {
		meals = []*model.Meal{}
	}
	return meals, nil
}

// Update は指定されたフィールドのみ上書きする。
// 作成者以外はパッチの内容によらずForbiddenを返す。作成者の空のパッチは検証エラー。
func (l *Ledger) Update(ctx context.Context, mealID, callerID string, patch model.MealPatch) (*model.Meal, error) {
	meal, err := l.findOwned(ctx, mealID, callerID)
	if err != nil {
		return nil, err
	}

	if patch.IsEmpty() {
		return nil, model.NewValidationError("更新するフィールドを1つ以上指定してください")
	}

	if patch.Name != nil {
		name := l.sanitizer.Sanitize(*patch.Name)
		patch.Name = &name
	}
	if patch.Description != nil {
		desc := l.sanitizer.Sanitize(*patch.Description)
		patch.Description = &desc
	}
	if err := l.validator.Struct(patch); err != nil {
		return nil, err
	}

	patch.Apply(meal)
	meal.MealTime = meal.MealTime.UTC()
	meal.UpdatedAt = l.now()

	ok, err := l.mealRepo.Update(ctx, meal)
	if err != nil {
		return nil, fmt.Errorf("食事の更新に失敗しました: %w", err)
	}
	// 取得後に削除された場合
	if !ok {
		return nil, model.NewMealNotFoundError(mealID)
	}

	l.record(OpUpdate)
	return meal, nil
}

// Delete は食事を削除する。対象が0件だった場合は成功扱いにせずNotFoundを返す。
func (l *Ledger) Delete(ctx context.Context, mealID, callerID string) error {
	if _, err := l.findOwned(ctx, mealID, callerID); err != nil {
		return err
	}

	ok, err := l.mealRepo.Delete(ctx, mealID)
	if err != nil {
		return fmt.Errorf("食事の削除に失敗しました: %w", err)
	}
	if !ok {
		return model.NewMealNotFoundError(mealID)
	}

	l.record(OpDelete)
	slog.Info("食事を削除しました",
		slog.String("user_id", callerID),
		slog.String("meal_id", mealID),
	)

	return nil
}

// findOwned は食事を取得し、呼び出し元が作成者であることを確認する。
func (l *Ledger) findOwned(ctx context.Context, mealID, callerID string) (*model.Meal, error) {
	meal, err := l.Get(ctx, mealID)
	if err != nil {
		return nil, err
	}
	if meal.AuthorID != callerID {
		slog.Warn("作成者以外による食事の変更を拒否しました",
			slog.String("user_id", callerID),
			slog.String("meal_id", mealID),
		)
		return nil, model.NewForbiddenError()
	}
	return meal, nil
}

func (l *Ledger) record(op string) {
	if l.recorder != nil {
		l.recorder.RecordMealWrite(op)
	}
}
