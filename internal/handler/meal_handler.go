package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/dailydiet/internal/model"
	"github.com/hitoshi/dailydiet/internal/validation"
)

// MealServiceInterface は食事ハンドラーが必要とするサービスインターフェース。
type MealServiceInterface interface {
	Create(ctx context.Context, authorID string, input model.MealInput) (*model.Meal, error)
	Get(ctx context.Context, mealID string) (*model.Meal, error)
	ListByUser(ctx context.Context, authorID string) ([]*model.Meal, error)
	Update(ctx context.Context, mealID, callerID string, patch model.MealPatch) (*model.Meal, error)
	Delete(ctx context.Context, mealID, callerID string) error
}

// MealHandler は食事記録のHTTPハンドラー。
type MealHandler struct {
	service   MealServiceInterface
	validator Validator
}

// NewMealHandler はMealHandlerを生成する。
func NewMealHandler(service MealServiceInterface, validator Validator) *MealHandler {
	return &MealHandler{service: service, validator: validator}
}

// createMealRequest は食事作成リクエストのボディ。
// 未指定とゼロ値を区別するためポインタで受ける。
type createMealRequest struct {
	Name         *string `json:"name" validate:"required"`
	Description  *string `json:"description" validate:"required"`
	MealTime     *string `json:"mealTime" validate:"omitempty,mealtime"`
	IsWithinDiet *bool   `json:"isWithinDiet" validate:"required"`
}

// updateMealRequest は食事更新リクエストのボディ。指定されたフィールドのみ更新する。
type updateMealRequest struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	MealTime     *string `json:"mealTime" validate:"omitempty,mealtime"`
	IsWithinDiet *bool   `json:"isWithinDiet"`
}

// parseOptionalMealTime は検証済みのmealTime文字列を解析する。
func parseOptionalMealTime(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := validation.ParseMealTime(*s)
	if err != nil {
		return nil, model.NewValidationError("mealTime: 日時の形式が正しくありません")
	}
	return &t, nil
}

// Create は食事を記録する。
// POST /meals
func (h *MealHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	var req createMealRequest
	if err := decodeBody(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	mealTime, err := parseOptionalMealTime(req.MealTime)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	meal, err := h.service.Create(r.Context(), userID, model.MealInput{
		Name:         *req.Name,
		Description:  *req.Description,
		MealTime:     mealTime,
		IsWithinDiet: *req.IsWithinDiet,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"meal": toMealResponse(meal)})
}

// List は呼び出し元の食事一覧を返す。食事がない場合は空配列を返す。
// GET /meals
func (h *MealHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	meals, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := make([]mealResponse, len(meals))
	for i, m := range meals {
		resp[i] = toMealResponse(m)
	}
	writeJSON(w, http.StatusOK, map[string]any{"meals": resp})
}

// Get は食事を1件返す。
// GET /meals/{id}
func (h *MealHandler) Get(w http.ResponseWriter, r *http.Request) {
	mealID, err := pathID(r, h.validator)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	meal, err := h.service.Get(r.Context(), mealID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"meal": toMealResponse(meal)})
}

// Update は食事を部分更新する。作成者のみ実行できる。
// PATCH /meals/{id}
func (h *MealHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	mealID, err := pathID(r, h.validator)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	var req updateMealRequest
	if err := decodeBody(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	mealTime, err := parseOptionalMealTime(req.MealTime)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	meal, err := h.service.Update(r.Context(), mealID, userID, model.MealPatch{
		Name:         req.Name,
		Description:  req.Description,
		MealTime:     mealTime,
		IsWithinDiet: req.IsWithinDiet,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"meal": toMealResponse(meal)})
}

// Delete は食事を削除する。作成者のみ実行できる。
// DELETE /meals/{id}
func (h *MealHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	mealID, err := pathID(r, h.validator)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), mealID, userID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
