// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/dailydiet/internal/middleware"
	"github.com/hitoshi/dailydiet/internal/model"
)

// maxBodyBytes はリクエストボディの上限サイズ。
const maxBodyBytes = 1 << 20

// Validator はリクエストボディと値の検証インターフェース。
type Validator interface {
	Struct(s any) error
	Var(field string, value any, tag string) error
}

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// sessionResponse はセッション情報のAPIレスポンス。
type sessionResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// mealResponse は食事情報のAPIレスポンス。
type mealResponse struct {
	ID           string    `json:"id"`
	AuthorID     string    `json:"authorId"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	MealTime     time.Time `json:"mealTime"`
	IsWithinDiet bool      `json:"isWithinDiet"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// metricsResponse は集計値のAPIレスポンス。
type metricsResponse struct {
	Created    int `json:"created"`
	WithinDiet int `json:"withinDiet"`
	OutOfDiet  int `json:"outOfDiet"`
	BestStreak int `json:"bestStreak"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt}
}

func toSessionResponse(s *model.Session) sessionResponse {
	return sessionResponse{ID: s.ID, UserID: s.UserID, Token: s.Token, ExpiresAt: s.ExpiresAt, CreatedAt: s.CreatedAt}
}

func toMealResponse(m *model.Meal) mealResponse {
	return mealResponse{
		ID:           m.ID,
		AuthorID:     m.AuthorID,
		Name:         m.Name,
		Description:  m.Description,
		MealTime:     m.MealTime,
		IsWithinDiet: m.IsWithinDiet,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// handleServiceError はサービス層から返されたエラーを統一フォーマットのレスポンスに変換する。
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	middleware.WriteError(w, r, err)
}

// decodeBody はリクエストボディをJSONとしてデコードする。
// 解析できない場合はINVALID_REQUESTを返す。
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return model.NewInvalidRequestError()
	}
	// 後続の値がある場合
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return model.NewInvalidRequestError()
	}
	return nil
}

// pathID はURLパスのIDを取得し、UUID形式であることを検証する。
func pathID(r *http.Request, v Validator) (string, error) {
	id := chi.URLParam(r, "id")
	if err := v.Var("id", id, "required,uuid"); err != nil {
		return "", err
	}
	return id, nil
}

// callerID はセッションから呼び出し元のユーザーIDを取得する。
func callerID(r *http.Request) (string, error) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		return "", model.NewUnauthenticatedError()
	}
	return userID, nil
}
