package utils

import (
	"strings"
	"unicode"
)

// Trim 去掉首尾空白（多字节安全）：
// 包括 NBSP、U+2028/U+2029、全角空格、NUL 以及 U+180E
func Trim(s string) string { return strings.TrimFunc(s, isTrimSpace) }

// TrimPtr nil 原样返回；否则返回 trim 后的新指针
func TrimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := Trim(*s)
	return &t
}

func isTrimSpace(r rune) bool {
	return unicode.IsSpace(r) || r == 0 || r == '\u180e'
}
