package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/dailydiet/internal/middleware"
	"github.com/hitoshi/dailydiet/internal/model"
	"github.com/hitoshi/dailydiet/internal/validation"
)

// --- モック定義 ---

// mockUserService はUserServiceInterfaceのモック実装。
type mockUserService struct {
	registerFn func(ctx context.Context, email string) (*model.User, *model.Session, error)
	signInFn   func(ctx context.Context, email string) (*model.Session, bool, error)
}

func (m *mockUserService) Register(ctx context.Context, email string) (*model.User, *model.Session, error) {
	return m.registerFn(ctx, email)
}

func (m *mockUserService) SignIn(ctx context.Context, email string) (*model.Session, bool, error) {
	return m.signInFn(ctx, email)
}

// mockMetricsService はMetricsServiceInterfaceのモック実装。
type mockMetricsService struct {
	getMetricsFn func(ctx context.Context, userID string) (*model.Metrics, error)
}

func (m *mockMetricsService) GetMetrics(ctx context.Context, userID string) (*model.Metrics, error) {
	return m.getMetricsFn(ctx, userID)
}

var _ UserServiceInterface = (*mockUserService)(nil)
var _ MetricsServiceInterface = (*mockMetricsService)(nil)

// --- テストヘルパー ---

const (
	testUserID  = "6f1c1f4e-8a4b-4a57-9d53-3f0b2f7d1c11"
	otherUserID = "0b6a2f0e-3d8c-4f7e-9a5b-1c2d3e4f5a6b"
	testMealID  = "9d0b7c1a-2e3f-4a5b-8c6d-7e8f9a0b1c2d"
)

var handlerNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testSession() *model.Session {
	return &model.Session{
		ID:        "session-1",
		UserID:    testUserID,
		Token:     "token-abc",
		ExpiresAt: handlerNow.Add(7 * 24 * time.Hour),
		CreatedAt: handlerNow,
	}
}

func newTestUserHandler(users UserServiceInterface, metrics MetricsServiceInterface) *UserHandler {
	h := NewUserHandler(users, metrics, validation.New(), CookieConfig{Domain: "example.com", Secure: true})
	h.now = func() time.Time { return handlerNow }
	return h
}

// withUserID はテスト用にリクエストコンテキストにユーザーIDを注入するヘルパー。
func withUserID(r *http.Request, userID string) *http.Request {
	return r.WithContext(middleware.ContextWithUserID(r.Context(), userID))
}

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// parseAPIErrorResponse はレスポンスボディからAPIErrorレスポンスをパースするヘルパー。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

// --- POST /users ---

func TestUserHandler_Register_Success(t *testing.T) {
	svc := &mockUserService{
		registerFn: func(ctx context.Context, email string) (*model.User, *model.Session, error) {
			if email != "a@x.com" {
				t.Errorf("email = %q, want %q", email, "a@x.com")
			}
			return &model.User{ID: testUserID, Email: email, CreatedAt: handlerNow, UpdatedAt: handlerNow}, testSession(), nil
		},
	}
	h := newTestUserHandler(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"email":"a@x.com"}`))
	w := httptest.NewRecorder()
	h.Register(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body=%s", w.Code, http.StatusCreated, w.Body.String())
	}

	cookie := sessionCookie(t, w)
	if cookie.Value != "token-abc" {
		t.Errorf("cookie value = %q, want %q", cookie.Value, "token-abc")
	}
	if !cookie.HttpOnly || !cookie.Secure {
		t.Error("session cookie must be HttpOnly and Secure")
	}
	if cookie.MaxAge != 7*24*60*60 {
		t.Errorf("cookie MaxAge = %d, want %d", cookie.MaxAge, 7*24*60*60)
	}
	if cookie.Domain != "example.com" {
		t.Errorf("cookie Domain = %q, want %q", cookie.Domain, "example.com")
	}

	var body struct {
		User    userResponse    `json:"user"`
		Session sessionResponse `json:"session"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.User.ID != testUserID || body.User.Email != "a@x.com" {
		t.Errorf("user = %+v", body.User)
	}
	if body.Session.Token != "token-abc" || body.Session.UserID != testUserID {
		t.Errorf("session = %+v", body.Session)
	}
}

func TestUserHandler_Register_BadRequests(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"malformed json", `{"email":`, model.ErrCodeInvalidRequest},
		{"trailing data", `{"email":"a@x.com"} {}`, model.ErrCodeInvalidRequest},
		{"missing email", `{}`, model.ErrCodeValidation},
		{"invalid email", `{"email":"not-an-email"}`, model.ErrCodeValidation},
		{"email longer than 320 chars", `{"email":"` + strings.Repeat("a", 64) + "@" + strings.Repeat(strings.Repeat("b", 60)+".", 5) + `com"}`, model.ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockUserService{
				registerFn: func(ctx context.Context, email string) (*model.User, *model.Session, error) {
					t.Error("service should not be called")
					return nil, nil, nil
				},
			}
			h := newTestUserHandler(svc, nil)

			w := httptest.NewRecorder()
			h.Register(w, httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(tt.body)))

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
			if got := parseAPIErrorResponse(t, w)["code"]; got != tt.wantCode {
				t.Errorf("code = %q, want %q", got, tt.wantCode)
			}
		})
	}
}

func TestUserHandler_Register_Conflict(t *testing.T) {
	svc := &mockUserService{
		registerFn: func(ctx context.Context, email string) (*model.User, *model.Session, error) {
			return nil, nil, model.NewEmailAlreadyRegisteredError()
		},
	}
	h := newTestUserHandler(svc, nil)

	w := httptest.NewRecorder()
	h.Register(w, httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"email":"a@x.com"}`)))

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}
	if len(w.Result().Cookies()) != 0 {
		t.Error("no cookie should be set on conflict")
	}
}

// --- POST /users/signin ---

func TestUserHandler_SignIn_Success(t *testing.T) {
	svc := &mockUserService{
		signInFn: func(ctx context.Context, email string) (*model.Session, bool, error) {
			return testSession(), true, nil
		},
	}
	h := newTestUserHandler(svc, nil)

	w := httptest.NewRecorder()
	h.SignIn(w, httptest.NewRequest(http.MethodPost, "/users/signin", strings.NewReader(`{"email":"a@x.com"}`)))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if sessionCookie(t, w).Value != "token-abc" {
		t.Error("cookie should be set even when the session is reused")
	}

	var body struct {
		Session sessionResponse `json:"session"`
		Reused  bool            `json:"reused"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if !body.Reused {
		t.Error("reused = false, want true")
	}
	if body.Session.ID != "session-1" {
		t.Errorf("session id = %q, want %q", body.Session.ID, "session-1")
	}
}

func TestUserHandler_SignIn_UnknownEmail(t *testing.T) {
	svc := &mockUserService{
		signInFn: func(ctx context.Context, email string) (*model.Session, bool, error) {
			return nil, false, model.NewUserNotFoundError()
		},
	}
	h := newTestUserHandler(svc, nil)

	w := httptest.NewRecorder()
	h.SignIn(w, httptest.NewRequest(http.MethodPost, "/users/signin", strings.NewReader(`{"email":"who@x.com"}`)))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if got := parseAPIErrorResponse(t, w)["code"]; got != model.ErrCodeUserNotFound {
		t.Errorf("code = %q, want %q", got, model.ErrCodeUserNotFound)
	}
}

// --- GET /users/{id}/metrics ---

func TestUserHandler_Metrics_Success(t *testing.T) {
	metrics := &mockMetricsService{
		getMetricsFn: func(ctx context.Context, userID string) (*model.Metrics, error) {
			return &model.Metrics{Created: 4, WithinDiet: 3, OutOfDiet: 1, BestStreak: 2}, nil
		},
	}
	h := newTestUserHandler(nil, metrics)

	req := httptest.NewRequest(http.MethodGet, "/users/"+testUserID+"/metrics", nil)
	req = withChiURLParam(req, "id", testUserID)
	req = withUserID(req, testUserID)
	w := httptest.NewRecorder()
	h.Metrics(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body struct {
		Metrics metricsResponse `json:"metrics"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	want := metricsResponse{Created: 4, WithinDiet: 3, OutOfDiet: 1, BestStreak: 2}
	if body.Metrics != want {
		t.Errorf("metrics = %+v, want %+v", body.Metrics, want)
	}
}

func TestUserHandler_Metrics_OtherUser_IsForbidden(t *testing.T) {
	metrics := &mockMetricsService{
		getMetricsFn: func(ctx context.Context, userID string) (*model.Metrics, error) {
			t.Error("metrics of another user must not be computed")
			return nil, nil
		},
	}
	h := newTestUserHandler(nil, metrics)

	req := httptest.NewRequest(http.MethodGet, "/users/"+otherUserID+"/metrics", nil)
	req = withChiURLParam(req, "id", otherUserID)
	req = withUserID(req, testUserID)
	w := httptest.NewRecorder()
	h.Metrics(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestUserHandler_Metrics_MalformedID(t *testing.T) {
	h := newTestUserHandler(nil, &mockMetricsService{})

	req := httptest.NewRequest(http.MethodGet, "/users/123/metrics", nil)
	req = withChiURLParam(req, "id", "123")
	req = withUserID(req, testUserID)
	w := httptest.NewRecorder()
	h.Metrics(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if got := parseAPIErrorResponse(t, w)["code"]; got != model.ErrCodeValidation {
		t.Errorf("code = %q, want %q", got, model.ErrCodeValidation)
	}
}
