package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/dailydiet/internal/model"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	Register(ctx context.Context, email string) (*model.User, *model.Session, error)
	SignIn(ctx context.Context, email string) (*model.Session, bool, error)
}

// MetricsServiceInterface は集計値の取得インターフェース。
type MetricsServiceInterface interface {
	GetMetrics(ctx context.Context, userID string) (*model.Metrics, error)
}

// UserHandler はユーザー登録・サインイン・集計値のHTTPハンドラー。
type UserHandler struct {
	users     UserServiceInterface
	metrics   MetricsServiceInterface
	validator Validator
	cookie    CookieConfig
	now       func() time.Time
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(users UserServiceInterface, metrics MetricsServiceInterface, validator Validator, cookie CookieConfig) *UserHandler {
	return &UserHandler{
		users:     users,
		metrics:   metrics,
		validator: validator,
		cookie:    cookie,
		now:       time.Now,
	}
}

// emailRequest は登録・サインインリクエストのボディ。
type emailRequest struct {
	Email string `json:"email" validate:"required,max=320,email"`
}

func (h *UserHandler) decodeEmail(w http.ResponseWriter, r *http.Request) (string, error) {
	var req emailRequest
	if err := decodeBody(w, r, &req); err != nil {
		return "", err
	}
	if err := h.validator.Struct(req); err != nil {
		return "", err
	}
	return req.Email, nil
}

// Register はユーザーを登録し、セッションCookieを設定する。
// POST /users
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	email, err := h.decodeEmail(w, r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	user, session, err := h.users.Register(r.Context(), email)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	setSessionCookie(w, h.cookie, session, h.now())
	writeJSON(w, http.StatusCreated, map[string]any{
		"user":    toUserResponse(user),
		"session": toSessionResponse(session),
	})
}

// SignIn はサインインし、有効なセッションのCookieを設定する。
// 再利用した場合もCookieを設定し直す。
// POST /users/signin
func (h *UserHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	email, err := h.decodeEmail(w, r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	session, reused, err := h.users.SignIn(r.Context(), email)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	setSessionCookie(w, h.cookie, session, h.now())
	writeJSON(w, http.StatusOK, map[string]any{
		"session": toSessionResponse(session),
		"reused":  reused,
	})
}

// Metrics はユーザー本人の集計値を返す。
// GET /users/{id}/metrics
func (h *UserHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, h.validator)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	caller, err := callerID(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if caller != userID {
		handleServiceError(w, r, model.NewForbiddenError())
		return
	}

	m, err := h.metrics.GetMetrics(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"metrics": metricsResponse{
			Created:    m.Created,
			WithinDiet: m.WithinDiet,
			OutOfDiet:  m.OutOfDiet,
			BestStreak: m.BestStreak,
		},
	})
}
