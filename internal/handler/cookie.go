package handler

import (
	"net/http"
	"time"

	"github.com/hitoshi/dailydiet/internal/middleware"
	"github.com/hitoshi/dailydiet/internal/model"
)

// CookieConfig はセッションCookieの設定。
type CookieConfig struct {
	Domain string
	Secure bool
}

// setSessionCookie はセッショントークンをHTTP Only Cookieに設定する。
// 有効期間はセッションの残り時間に合わせる。
func setSessionCookie(w http.ResponseWriter, cfg CookieConfig, session *model.Session, now time.Time) {
	maxAge := int(session.ExpiresAt.Sub(now).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   maxAge,
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
