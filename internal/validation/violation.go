// Package validation 字段级内容校验：唯一性检查、语法规则与违规汇总。
package validation

import (
	"fmt"
	"strings"
)

// Violation 单条内容违规（对应 HTTP 422）
type Violation struct {
	Path    string
	Message string
}

// Violations 按声明顺序累积；非空时可直接作为 error 返回
type Violations []Violation

func (v Violations) Error() string {
	parts := make([]string, 0, len(v))
	for _, it := range v {
		parts = append(parts, it.Path+": "+it.Message)
	}
	return strings.Join(parts, "\n")
}

func (v Violations) Empty() bool { return len(v) == 0 }

func (v *Violations) Add(path, msg string) {
	*v = append(*v, Violation{Path: path, Message: msg})
}

// Has 判断某字段是否已有违规
func (v Violations) Has(path string) bool {
	for _, it := range v {
		if it.Path == path {
			return true
		}
	}
	return false
}

// Err 无违规时返回 nil，避免 typed-nil error
func (v Violations) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// TypeError 请求结构/类型错误（对应 HTTP 400），与内容违规区分
type TypeError struct {
	Path string
	Msg  string
}

func (e *TypeError) Error() string {
	if e.Path == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

// Typef 构造 TypeError
func Typef(path, format string, args ...any) *TypeError {
	return &TypeError{Path: path, Msg: fmt.Sprintf(format, args...)}
}
