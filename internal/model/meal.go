// Package model はドメインモデルを定義する。
package model

import "time"

// Meal はユーザーが記録した食事を表す。
// 作成者（AuthorID）は常に1人で、作成者のみが更新・削除できる。
type Meal struct {
	ID           string
	AuthorID     string
	Name         string
	Description  string
	MealTime     time.Time
	IsWithinDiet bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MealInput は食事作成時の入力値。
// MealTimeがnilの場合の扱いはLedgerの設定に従う。
type MealInput struct {
	Name         string `validate:"min=2,max=255"`
	Description  string
	MealTime     *time.Time
	IsWithinDiet bool
}

// MealPatch は食事の部分更新を表す。
// nilのフィールドは変更せず、既存の値を維持する。
type MealPatch struct {
	Name         *string `validate:"omitempty,min=2,max=255"`
	Description  *string
	MealTime     *time.Time
	IsWithinDiet *bool
}

// IsEmpty は更新対象のフィールドが1つも指定されていないかどうかを返す。
func (p MealPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.MealTime == nil && p.IsWithinDiet == nil
}

// Apply はパッチを食事に適用する。指定されたフィールドのみ上書きする。
func (p MealPatch) Apply(m *Meal) {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Description != nil {
		m.Description = *p.Description
	}
	if p.MealTime != nil {
		m.MealTime = *p.MealTime
	}
	if p.IsWithinDiet != nil {
		m.IsWithinDiet = *p.IsWithinDiet
	}
}

// Metrics はユーザーごとのダイエット遵守状況の集計値。
type Metrics struct {
	Created    int
	WithinDiet int
	OutOfDiet  int
	BestStreak int
}

// StreakRule はベストストリークの連続性の判定方法を表す。
type StreakRule string

const (
	// StreakRuleSequence はmealTime順に並べた食事の連続性で判定する。
	StreakRuleSequence StreakRule = "sequence"
	// StreakRuleCalendar は暦日の隣接で判定する。
	StreakRuleCalendar StreakRule = "calendar"
)
