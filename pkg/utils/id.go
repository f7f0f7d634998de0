package utils

import "github.com/google/uuid"

// NewID 生成按时间排序的 ID（UUIDv7，字典序即创建顺序）
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// 熵源异常时退回 v4，保证不返回空 ID
		return uuid.NewString()
	}
	return id.String()
}
