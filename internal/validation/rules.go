package validation

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"gin-user-registry/pkg/utils"
)

const (
	MsgNotBlank    = "This value should not be blank."
	MsgNotNull     = "This value should not be null."
	MsgInvalid     = "This value is not valid."
	MsgEmail       = "This value is not a valid email address."
	MsgAlreadyUsed = "This value is already used."
)

// Rule 单字段纯函数校验；error 仅表示输入类型不对
type Rule func(ctx context.Context, path string, v any) (Violations, error)

// Field 一个字段及其有序规则
type Field struct {
	Path  string
	Rules []Rule
}

// Schema 字段按声明顺序执行，违规取并集
type Schema []Field

func (s Schema) Validate(ctx context.Context, values map[string]any) (Violations, error) {
	var out Violations
	for _, f := range s {
		v := values[f.Path]
		for _, r := range f.Rules {
			vs, err := r(ctx, f.Path, v)
			if err != nil {
				return nil, err
			}
			out = append(out, vs...)
		}
	}
	return out, nil
}

func one(path, msg string) Violations { return Violations{{Path: path, Message: msg}} }

// NotBlank nil、trim 后为空的字符串、空集合
func NotBlank() Rule {
	return func(_ context.Context, path string, v any) (Violations, error) {
		if v == nil {
			return one(path, MsgNotBlank), nil
		}
		switch x := v.(type) {
		case string:
			if utils.Trim(x) == "" {
				return one(path, MsgNotBlank), nil
			}
			return nil, nil
		}
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Slice, reflect.Map, reflect.Array:
			if rv.Len() == 0 {
				return one(path, MsgNotBlank), nil
			}
		}
		return nil, nil
	}
}

func NotNull() Rule {
	return func(_ context.Context, path string, v any) (Violations, error) {
		if v == nil {
			return one(path, MsgNotNull), nil
		}
		return nil, nil
	}
}

// asString nil 返回 ok=false；非字符串是调用方的类型错误
func asString(path string, v any) (string, bool, error) {
	if v == nil {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, Typef(path, "expected a string, %T given", v)
	}
	return s, true, nil
}

// MaxLength 按字符（rune）计数
func MaxLength(n int) Rule {
	unit := "characters"
	if n == 1 {
		unit = "character"
	}
	msg := fmt.Sprintf("This value is too long. It should have %d %s or less.", n, unit)
	return func(_ context.Context, path string, v any) (Violations, error) {
		s, ok, err := asString(path, v)
		if err != nil || !ok {
			return nil, err
		}
		if utf8.RuneCountInString(s) > n {
			return one(path, msg), nil
		}
		return nil, nil
	}
}

// Match 空串同样参与匹配，所以纯空白值会同时报 blank 和语法错误
func Match(re *regexp.Regexp, msg string) Rule {
	return MatchAll(msg, re)
}

// MatchAll 全部正则都命中才算通过，失败只报一条
func MatchAll(msg string, res ...*regexp.Regexp) Rule {
	return func(_ context.Context, path string, v any) (Violations, error) {
		s, ok, err := asString(path, v)
		if err != nil || !ok {
			return nil, err
		}
		for _, re := range res {
			if !re.MatchString(s) {
				return one(path, msg), nil
			}
		}
		return nil, nil
	}
}

var emailValidate = validator.New()

// Email 语法校验；空值交给 NotBlank
func Email() Rule {
	return func(_ context.Context, path string, v any) (Violations, error) {
		s, ok, err := asString(path, v)
		if err != nil || !ok || s == "" {
			return nil, err
		}
		if emailValidate.Var(s, "email") != nil {
			return one(path, MsgEmail), nil
		}
		return nil, nil
	}
}

// MinCount 集合元素下限；nil 交给 NotNull
func MinCount(n int) Rule {
	unit := "elements"
	if n == 1 {
		unit = "element"
	}
	msg := fmt.Sprintf("This collection should contain %d %s or more.", n, unit)
	return func(_ context.Context, path string, v any) (Violations, error) {
		if v == nil {
			return nil, nil
		}
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Slice, reflect.Array, reflect.Map:
		default:
			return nil, Typef(path, "expected a collection, %T given", v)
		}
		if rv.Len() < n {
			return one(path, msg), nil
		}
		return nil, nil
	}
}
