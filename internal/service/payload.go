package service

import (
	"bytes"
	"encoding/json"
	"strings"

	"gin-user-registry/internal/domain"
	"gin-user-registry/internal/validation"
)

// field 区分三种状态：缺失 / 显式 null / 有值
type field[T any] struct {
	set  bool
	null bool
	val  T
}

type userPayload struct {
	name, surname, email, note field[string]
	gender                     field[domain.Gender]
	roles                      field[[]domain.Role]
	active                     field[bool]
}

// requiredFields 创建与整体替换时必须出现
var requiredFields = []string{"name", "surname", "email", "gender", "roles", "active"}

// decodeObject 请求体必须是 JSON 对象
func decodeObject(body []byte) (map[string]json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, validation.Typef("", "Syntax error: the request body is empty.")
	}
	if !json.Valid(body) {
		return nil, validation.Typef("", "Syntax error: the request body is not valid JSON.")
	}
	var raw map[string]json.RawMessage
	if body[0] != '{' || json.Unmarshal(body, &raw) != nil {
		return nil, validation.Typef("", "The request body must be a JSON object, %s given.", jsonType(body))
	}
	return raw, nil
}

func jsonType(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "nothing"
	}
	switch raw[0] {
	case '"':
		return "string"
	case 't', 'f':
		return "bool"
	case 'n':
		return "null"
	case '[':
		return "array"
	case '{':
		return "object"
	}
	if bytes.ContainsAny(raw, ".eE") {
		return "float"
	}
	return "int"
}

func isNull(raw json.RawMessage) bool { return string(bytes.TrimSpace(raw)) == "null" }

func typeMismatch(path, want string, raw json.RawMessage) error {
	return validation.Typef(path, "The type of the %q attribute must be %q, %q given.", path, want, jsonType(raw))
}

func parseString(raw map[string]json.RawMessage, path string) (field[string], error) {
	var f field[string]
	r, ok := raw[path]
	if !ok {
		return f, nil
	}
	f.set = true
	if isNull(r) {
		f.null = true
		return f, nil
	}
	if json.Unmarshal(r, &f.val) != nil {
		return f, typeMismatch(path, "string", r)
	}
	return f, nil
}

func parseBool(raw map[string]json.RawMessage, path string) (field[bool], error) {
	var f field[bool]
	r, ok := raw[path]
	if !ok {
		return f, nil
	}
	f.set = true
	if isNull(r) {
		f.null = true
		return f, nil
	}
	// 只接受 true/false 字面量，不做 "true"/0/1 转换
	if json.Unmarshal(r, &f.val) != nil {
		return f, typeMismatch(path, "bool", r)
	}
	return f, nil
}

func parseGender(raw map[string]json.RawMessage, path string) (field[domain.Gender], error) {
	var f field[domain.Gender]
	s, err := parseString(raw, path)
	if err != nil || !s.set || s.null {
		f.set, f.null = s.set, s.null
		return f, err
	}
	g, ok := domain.ParseGender(s.val)
	if !ok {
		return f, validation.Typef(path, "The data must belong to a backed enumeration of type Gender (%s).", enumList(domain.Genders))
	}
	f.set, f.val = true, g
	return f, nil
}

func parseRoles(raw map[string]json.RawMessage, path string) (field[[]domain.Role], error) {
	var f field[[]domain.Role]
	r, ok := raw[path]
	if !ok {
		return f, nil
	}
	f.set = true
	if isNull(r) {
		f.null = true
		return f, nil
	}
	var items []json.RawMessage
	if json.Unmarshal(r, &items) != nil {
		return f, typeMismatch(path, "array", r)
	}
	f.val = make([]domain.Role, 0, len(items))
	for _, it := range items {
		var s string
		if json.Unmarshal(it, &s) != nil {
			return f, validation.Typef(path, "The type of the %q attribute items must be %q, %q given.", path, "string", jsonType(it))
		}
		role, ok := domain.ParseRole(s)
		if !ok {
			return f, validation.Typef(path, "The data must belong to a backed enumeration of type Role (%s).", enumList(domain.Roles))
		}
		f.val = append(f.val, role)
	}
	return f, nil
}

func enumList[T ~string](vals []T) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}

// parseUserPayload 类型错误立即返回（400），不进入内容校验
func parseUserPayload(raw map[string]json.RawMessage) (*userPayload, error) {
	var (
		p   userPayload
		err error
	)
	if p.name, err = parseString(raw, "name"); err != nil {
		return nil, err
	}
	if p.surname, err = parseString(raw, "surname"); err != nil {
		return nil, err
	}
	if p.email, err = parseString(raw, "email"); err != nil {
		return nil, err
	}
	if p.gender, err = parseGender(raw, "gender"); err != nil {
		return nil, err
	}
	if p.roles, err = parseRoles(raw, "roles"); err != nil {
		return nil, err
	}
	if p.note, err = parseString(raw, "note"); err != nil {
		return nil, err
	}
	if p.active, err = parseBool(raw, "active"); err != nil {
		return nil, err
	}
	return &p, nil
}

// requireAll POST/PUT 缺字段属于请求结构错误
func requireAll(raw map[string]json.RawMessage) error {
	for _, k := range requiredFields {
		if _, ok := raw[k]; !ok {
			return validation.Typef(k, "The %q attribute is required.", k)
		}
	}
	return nil
}
