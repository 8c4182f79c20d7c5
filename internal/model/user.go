// Package model はドメインモデルを定義する。
package model

import "time"

// User はメールアドレスで登録されたユーザーを表す。
// emailは登録時の表記のまま一意に扱う（大文字小文字を区別する）。
type User struct {
	ID        string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Session はユーザーのログインセッションを表す。
// Tokenは推測不能な不透明文字列で、IDとは別に発行する。
// 有効性は now < ExpiresAt のときのみ。
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}
