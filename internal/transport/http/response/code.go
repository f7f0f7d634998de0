package response

import "net/http"

// 状态码直接使用 HTTP 语义
const (
	CodeOK              = http.StatusOK
	CodeCreated         = http.StatusCreated
	CodeNoContent       = http.StatusNoContent
	CodeBadRequest      = http.StatusBadRequest
	CodeNotFound        = http.StatusNotFound
	CodeTooLarge        = http.StatusRequestEntityTooLarge
	CodeUnprocessable   = http.StatusUnprocessableEntity
	CodeTooManyRequests = http.StatusTooManyRequests
	CodeServerError     = http.StatusInternalServerError
	CodeUnavailable     = http.StatusServiceUnavailable
	CodeTimeout         = http.StatusGatewayTimeout
)

// CodeMsgMap 默认 detail
var CodeMsgMap = map[int]string{
	CodeOK:              "OK",
	CodeCreated:         "Created",
	CodeNoContent:       "No Content",
	CodeBadRequest:      "Bad Request",
	CodeNotFound:        "Not Found",
	CodeTooLarge:        "Request body too large",
	CodeUnprocessable:   "Unprocessable Entity",
	CodeTooManyRequests: "Too many requests",
	CodeServerError:     "Internal Server Error",
	CodeUnavailable:     "Server busy",
	CodeTimeout:         "Timeout",
}
