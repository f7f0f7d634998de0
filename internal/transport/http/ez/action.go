package ez

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	resp "gin-user-registry/internal/transport/http/response"
)

type EZ struct{ g *gin.RouterGroup }

func New(g *gin.RouterGroup) EZ { return EZ{g: g} }

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON 绑定
	BindQuery Binder = "query" // 从 URL ?a=b 绑定
	BindNone  Binder = "none"  // 不绑定，自己从 c.Param 取
)

// AErr 携带 HTTP 状态码的错误；Violations 非空时输出 422 校验体
type AErr struct {
	Code       int
	Msg        string
	Err        error
	Violations []resp.Violation
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error { return e.Err }

func BadRequest(msg string) error { return &AErr{Code: resp.CodeBadRequest, Msg: msg} }
func NotFound(msg string) error   { return &AErr{Code: resp.CodeNotFound, Msg: msg} }
func TooLarge(err error) error {
	return &AErr{Code: resp.CodeTooLarge, Msg: resp.CodeMsgMap[resp.CodeTooLarge], Err: err}
}
func Unprocessable(vs []resp.Violation) error {
	return &AErr{Code: resp.CodeUnprocessable, Violations: vs}
}
func Internal(msg string, err error) error {
	return &AErr{Code: resp.CodeServerError, Msg: msg, Err: err}
}

// Fail 统一错误输出；非 AErr 按 500（超时 504），原始错误交给 c.Error 由日志中间件记录
func Fail(c *gin.Context, err error) {
	var ae *AErr
	switch {
	case errors.As(err, &ae):
	case errors.Is(err, context.DeadlineExceeded):
		ae = &AErr{Code: resp.CodeTimeout, Err: err}
	default:
		ae = &AErr{Code: resp.CodeServerError, Err: err}
	}
	if ae.Code >= resp.CodeServerError {
		_ = c.Error(err)
	}
	if len(ae.Violations) > 0 {
		c.AbortWithStatusJSON(ae.Code, resp.Invalid(ae.Violations))
		return
	}
	c.AbortWithStatusJSON(ae.Code, resp.Error(ae.Code, ae.Msg))
}

// 动作定义：I 入参，O 出参
type Action[I any, O any] struct {
	Method  string // "GET" | "POST" | "PUT" | "PATCH" | "DELETE"
	Path    string // 例："/users/:id/deactivate"
	Binder  Binder
	Status  int  // 成功状态码，默认 200
	UseTx   bool // 是否包事务（gorm.Transaction）
	Handler func(c *gin.Context, db *gorm.DB, in *I) (O, error)
}

// RegisterAction 在当前 EZ 下注册非 CRUD 接口
func RegisterAction[I any, O any](e EZ, db *gorm.DB, a Action[I, O]) {
	status := a.Status
	if status == 0 {
		status = http.StatusOK
	}
	h := func(c *gin.Context) {
		// 1) 绑定入参
		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		default:
		}
		if bindErr != nil {
			Fail(c, BadRequest(bindErr.Error()))
			return
		}

		// 2) 执行（可选事务）
		var out O
		var err error
		if a.UseTx {
			err = db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
				o, e := a.Handler(c, tx, &in)
				out = o
				return e
			})
		} else {
			out, err = a.Handler(c, db.WithContext(c.Request.Context()), &in)
		}

		// 3) 统一错误映射
		if err != nil {
			Fail(c, err)
			return
		}
		c.JSON(status, out)
	}

	method := strings.ToUpper(a.Method)
	if method == "" {
		method = http.MethodPost
	}
	e.g.Handle(method, a.Path, h)
}
