// Package analytics はダイエット遵守状況の集計を提供する。
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/hitoshi/dailydiet/internal/model"
	"github.com/hitoshi/dailydiet/internal/repository"
)

// Engine は食事記録から集計値を算出する。書き込みは行わない。
type Engine struct {
	mealRepo repository.MealRepository
	rule     model.StreakRule
	loc      *time.Location
}

// NewEngine はEngineを生成する。
// locはcalendarルールで日付を判定するタイムゾーン。nilの場合はUTC。
func NewEngine(mealRepo repository.MealRepository, rule model.StreakRule, loc *time.Location) *Engine {
	if rule == "" {
		rule = model.StreakRuleSequence
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{mealRepo: mealRepo, rule: rule, loc: loc}
}

// GetMetrics はユーザーの食事件数とベストストリークを返す。
// 件数とストリークは1回の一覧取得から算出し、同じ時点の食事記録を表す。
func (e *Engine) GetMetrics(ctx context.Context, userID string) (*model.Metrics, error) {
	meals, err := e.mealRepo.ListByAuthor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("食事一覧の取得に失敗しました: %w", err)
	}

	var withinDiet int
	for _, m := range meals {
		if m.IsWithinDiet {
			withinDiet++
		}
	}

	var best int
	switch e.rule {
	case model.StreakRuleCalendar:
		best = CalendarStreak(meals, e.loc)
	default:
		best = SequenceStreak(meals)
	}

	return &model.Metrics{
		Created:    len(meals),
		WithinDiet: withinDiet,
		OutOfDiet:  len(meals) - withinDiet,
		BestStreak: best,
	}, nil
}

// SequenceStreak はmealTime順に並べたときに連続するダイエット内の食事の最大数を返す。
// ダイエット外の食事で連続は途切れる。
func SequenceStreak(meals []*model.Meal) int {
	best, current := 0, 0
	for _, m := range sortedByMealTime(meals) {
		if !m.IsWithinDiet {
			current = 0
			continue
		}
		current++
		if current > best {
			best = current
		}
	}
	return best
}

// CalendarStreak はダイエット内の食事がある日が暦日で連続する最大日数を返す。
// 同じ日の複数の食事は1日として数え、連続を伸ばしも途切れさせもしない。
// 1日より大きい間隔が空くと1から数え直す。ダイエット外の食事は判定に使わない。
func CalendarStreak(meals []*model.Meal, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}

	best, current := 0, 0
	var prev time.Time
	for _, m := range sortedByMealTime(meals) {
		if !m.IsWithinDiet {
			continue
		}

		day := civilDate(m.MealTime, loc)
		switch {
		case current == 0:
			current = 1
		case day.Equal(prev):
			continue
		case daysBetween(prev, day) == 1:
			current++
		default:
			current = 1
		}
		prev = day

		if current > best {
			best = current
		}
	}
	return best
}

// civilDate はlocでの日付をUTCの0時として返す。
// 日数差は夏時間の影響を受けない。
func civilDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// sortedByMealTime はmealTime昇順（同時刻は作成順）に並べたコピーを返す。
func sortedByMealTime(meals []*model.Meal) []*model.Meal {
	sorted := make([]*model.Meal, len(meals))
	copy(sorted, meals)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].MealTime.Equal(sorted[j].MealTime) {
			return sorted[i].MealTime.Before(sorted[j].MealTime)
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	return sorted
}
