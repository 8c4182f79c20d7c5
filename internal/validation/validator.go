// Package validation はリクエスト値と入力モデルの検証を提供する。
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hitoshi/dailydiet/internal/model"
)

// mealTimePattern は受け付けるmealTimeの書式。
// オフセット省略時はUTCとして扱う。
var mealTimePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d{1,3})?([+-]\d{2}:\d{2}|Z)?$`)

// Validator はstructタグによる検証を行う。並行利用可能。
type Validator struct {
	v *validator.Validate
}

// New はカスタムタグ（mealtime）を登録したValidatorを生成する。
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// エラーメッセージにはJSONのフィールド名を使う
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("mealtime", func(fl validator.FieldLevel) bool {
		_, err := ParseMealTime(fl.Field().String())
		return err == nil
	})

	return &Validator{v: v}
}

// Struct はstructタグに従って値を検証する。
// 検証エラーは最初の1件をVALIDATION_ERRORのAPIErrorとして返す。
func (val *Validator) Struct(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return model.NewValidationError(describe(verrs[0]))
	}
	return fmt.Errorf("validation failed: %w", err)
}

// Var は単一の値をタグで検証する。
func (val *Validator) Var(field string, value any, tag string) error {
	err := val.v.Var(value, tag)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return model.NewValidationError(fmt.Sprintf("%s: %s", field, reason(verrs[0])))
	}
	return fmt.Errorf("validation failed: %w", err)
}

// ParseMealTime はmealTime文字列を解析する。
// 小数秒は3桁まで、オフセット省略時はUTCとして扱う。
func ParseMealTime(s string) (time.Time, error) {
	m := mealTimePattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("invalid mealTime format: %q", s)
	}

	// 小数秒はレイアウトに含めなくても解析される
	if m[2] == "" {
		t, err := time.ParseInLocation("2006-01-02T15:04:05", s, time.UTC)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid mealTime: %w", err)
		}
		return t, nil
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid mealTime: %w", err)
	}
	return t, nil
}

func describe(fe validator.FieldError) string {
	return fmt.Sprintf("%s: %s", fe.Field(), reason(fe))
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "必須項目です"
	case "email":
		return "メールアドレスの形式が正しくありません"
	case "min":
		return fmt.Sprintf("%s文字以上で入力してください", fe.Param())
	case "max":
		return fmt.Sprintf("%s文字以内で入力してください", fe.Param())
	case "mealtime":
		return "日時の形式が正しくありません（例: 2024-01-31T12:00:00Z）"
	case "uuid":
		return "UUIDの形式が正しくありません"
	default:
		return fmt.Sprintf("%s を満たしていません", fe.Tag())
	}
}
