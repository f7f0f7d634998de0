package response

import (
	"strconv"
	"strings"
)

const (
	ProblemTitle       = "An error occurred"
	ValidationErrorsID = "/validation_errors"
)

// Problem 错误响应体
type Problem struct {
	Type       string      `json:"type"`
	Title      string      `json:"title"`
	Status     int         `json:"status"`
	Detail     string      `json:"detail"`
	Violations []Violation `json:"violations,omitempty"`
}

type Violation struct {
	PropertyPath string `json:"propertyPath"`
	Message      string `json:"message"`
}

// Error 400/404/500 等；detail 为空时取默认文案
func Error(status int, detail string) Problem {
	if detail == "" {
		detail = CodeMsgMap[status]
	}
	return Problem{
		Type:   "/errors/" + strconv.Itoa(status),
		Title:  ProblemTitle,
		Status: status,
		Detail: detail,
	}
}

// Invalid 422，detail 为 "path: message" 逐行拼接
func Invalid(vs []Violation) Problem {
	lines := make([]string, 0, len(vs))
	for _, v := range vs {
		lines = append(lines, v.PropertyPath+": "+v.Message)
	}
	return Problem{
		Type:       ValidationErrorsID,
		Title:      ProblemTitle,
		Status:     CodeUnprocessable,
		Detail:     strings.Join(lines, "\n"),
		Violations: vs,
	}
}

// Collection 列表响应
type Collection[T any] struct {
	TotalItems int64 `json:"totalItems"`
	Member     []T   `json:"member"`
	View       *View `json:"view,omitempty"`
}

// View 分页链接
type View struct {
	ID       string `json:"@id"`
	First    string `json:"first"`
	Last     string `json:"last"`
	Previous string `json:"previous,omitempty"`
	Next     string `json:"next,omitempty"`
}
