package service

import (
	"bytes"
	"encoding/json"

	"gin-user-registry/internal/domain"
	"gin-user-registry/pkg/utils"
)

// candidate 待持久化的字段集合；nil 表示 null
type candidate struct {
	name, surname, email, note *string
	gender                     *domain.Gender
	roles                      []domain.Role
	active                     *bool
}

func fromUser(u *domain.User) *candidate {
	c := &candidate{
		name:    ptr(u.Name),
		surname: ptr(u.Surname),
		email:   ptr(u.Email),
		gender:  ptr(u.Gender),
		roles:   append([]domain.Role{}, u.Roles...),
		active:  ptr(u.Active),
	}
	if u.Note != nil {
		c.note = ptr(*u.Note)
	}
	return c
}

func ptr[T any](v T) *T { return &v }

func pick[T any](cur *T, f field[T]) *T {
	if !f.set {
		return cur
	}
	if f.null {
		return nil
	}
	return ptr(f.val)
}

// apply 只覆盖请求中出现的字段（PATCH 语义；PUT 从空 candidate 开始）
func (c *candidate) apply(p *userPayload) {
	c.name = pick(c.name, p.name)
	c.surname = pick(c.surname, p.surname)
	c.email = pick(c.email, p.email)
	c.note = pick(c.note, p.note)
	c.gender = pick(c.gender, p.gender)
	c.active = pick(c.active, p.active)
	if p.roles.set {
		c.roles = p.roles.val
		if p.roles.null {
			c.roles = nil
		}
	}
}

// values 交给 validation.Schema；null 必须是无类型 nil
func (c *candidate) values() map[string]any {
	out := map[string]any{}
	put := func(k string, v any, isNil bool) {
		if isNil {
			out[k] = nil
			return
		}
		out[k] = v
	}
	put("name", deref(c.name), c.name == nil)
	put("surname", deref(c.surname), c.surname == nil)
	put("email", deref(c.email), c.email == nil)
	put("note", deref(c.note), c.note == nil)
	put("gender", deref(c.gender), c.gender == nil)
	put("roles", c.roles, c.roles == nil)
	put("active", deref(c.active), c.active == nil)
	return out
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func (c *candidate) toUser(id string) *domain.User {
	return &domain.User{
		ID:      id,
		Name:    deref(c.name),
		Surname: deref(c.surname),
		Email:   deref(c.email),
		Gender:  deref(c.gender),
		Roles:   c.roles,
		Note:    c.note,
		Active:  deref(c.active),
	}
}

// guardIdentifier 请求体带 id 时，其规范字符串必须与 URI 中的 id 一致
func guardIdentifier(raw map[string]json.RawMessage, uriID string) error {
	r, ok := raw["id"]
	if !ok {
		return nil
	}
	if canonicalID(r) != uriID {
		return domain.ErrIdentifierMismatch
	}
	return nil
}

func canonicalID(r json.RawMessage) string {
	var s string
	if json.Unmarshal(r, &s) == nil {
		return s
	}
	return string(bytes.TrimSpace(r))
}

// normalize 持久化前 trim 文本字段（先 trim 再校验）；trim 后的空 note 视为缺省
func normalize(c *candidate) {
	c.name = utils.TrimPtr(c.name)
	c.surname = utils.TrimPtr(c.surname)
	c.email = utils.TrimPtr(c.email)
	c.note = utils.TrimPtr(c.note)
	if c.note != nil && *c.note == "" {
		c.note = nil
	}
}
