package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/dailydiet/internal/model"
)

const mealColumns = `id, author_id, name, description, meal_time, is_within_diet, created_at, updated_at`

// PostgresMealRepo はPostgreSQLを使用した食事リポジトリ。
type PostgresMealRepo struct {
	db *sql.DB
}

// NewPostgresMealRepo はPostgresMealRepoを生成する。
func NewPostgresMealRepo(db *sql.DB) *PostgresMealRepo {
	return &PostgresMealRepo{db: db}
}

// Create は食事を作成する。
func (r *PostgresMealRepo) Create(ctx context.Context, meal *model.Meal) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO meals (`+mealColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		meal.ID, meal.AuthorID, meal.Name, meal.Description,
		meal.MealTime, meal.IsWithinDiet, meal.CreatedAt, meal.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert meal: %w", err)
	}
	return nil
}

// FindByID は指定IDの食事を取得する。見つからない場合はnilを返す。
func (r *PostgresMealRepo) FindByID(ctx context.Context, id string) (*model.Meal, error) {
	meal := &model.Meal{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+mealColumns+` FROM meals WHERE id = $1`,
		id,
	).Scan(&meal.ID, &meal.AuthorID, &meal.Name, &meal.Description,
		&meal.MealTime, &meal.IsWithinDiet, &meal.CreatedAt, &meal.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find meal: %w", err)
	}

	return meal, nil
}

// Update は食事の内容を上書き更新する。author_idとcreated_atは変更しない。
func (r *PostgresMealRepo) Update(ctx context.Context, meal *model.Meal) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE meals
		 SET name = $2, description = $3, meal_time = $4, is_within_diet = $5, updated_at = $6
		 WHERE id = $1`,
		meal.ID, meal.Name, meal.Description, meal.MealTime, meal.IsWithinDiet, meal.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update meal: %w", err)
	}
	return affected(result)
}

// Delete は指定IDの食事を削除する。
func (r *PostgresMealRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM meals WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete meal: %w", err)
	}
	return affected(result)
}

// ListByAuthor はユーザーの食事をmeal_time昇順で返す。
func (r *PostgresMealRepo) ListByAuthor(ctx context.Context, authorID string) ([]*model.Meal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+mealColumns+`
		 FROM meals
		 WHERE author_id = $1
		 ORDER BY meal_time ASC, created_at ASC`,
		authorID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list meals: %w", err)
	}
	defer rows.Close()

	meals := []*model.Meal{}
	for rows.Next() {
		meal := &model.Meal{}
		if err := rows.Scan(&meal.ID, &meal.AuthorID, &meal.Name, &meal.Description,
			&meal.MealTime, &meal.IsWithinDiet, &meal.CreatedAt, &meal.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan meal: %w", err)
		}
		meals = append(meals, meal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate meals: %w", err)
	}

	return meals, nil
}

// Count はフィルタに一致する食事の件数を返す。
func (r *PostgresMealRepo) Count(ctx context.Context, filter MealFilter) (int, error) {
	var count int
	var err error
	if filter.IsWithinDiet == nil {
		err = r.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM meals WHERE author_id = $1`,
			filter.AuthorID,
		).Scan(&count)
	} else {
		err = r.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM meals WHERE author_id = $1 AND is_within_diet = $2`,
			filter.AuthorID, *filter.IsWithinDiet,
		).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count meals: %w", err)
	}
	return count, nil
}

// affected は更新・削除の影響行数が1件以上かどうかを返す。
func affected(result sql.Result) (bool, error) {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ MealRepository = (*PostgresMealRepo)(nil)
