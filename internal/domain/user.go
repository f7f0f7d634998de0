package domain

import (
	"context"
	"errors"
)

// Gender 性别（大小写敏感，不做转换）
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
)

// Genders 声明顺序即枚举顺序
var Genders = []Gender{GenderMale, GenderFemale}

// ParseGender 只接受声明的字面值
func ParseGender(s string) (Gender, bool) {
	for _, g := range Genders {
		if string(g) == s {
			return g, true
		}
	}
	return "", false
}

// Role 角色
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleUser   Role = "USER"
	RoleWorker Role = "WORKER"
)

var Roles = []Role{RoleAdmin, RoleUser, RoleWorker}

func ParseRole(s string) (Role, bool) {
	for _, r := range Roles {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

// User 系统账号
type User struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Surname string  `json:"surname"`
	Email   string  `json:"email"`
	Gender  Gender  `json:"gender"`
	Roles   []Role  `json:"roles"`
	Note    *string `json:"note,omitempty"` // 空串与 null 都视为缺省
	Active  bool    `json:"active"`
}

// OrderBy 排序字段（已校验过的列名）
type OrderBy struct {
	Field string
	Desc  bool
}

// UserFilter 列表查询条件；指针为 nil 表示不过滤
type UserFilter struct {
	ID     string
	Gender *Gender
	Role   *Role
	Active *bool

	// 模糊匹配
	Name    string
	Surname string
	Email   string
	Note    string

	Order  []OrderBy
	Offset int
	Limit  int
}

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already used")
	ErrIdentifierMismatch = errors.New("identifier mismatch")
)

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	// FindByEmail 不存在时返回 nil, nil
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, f UserFilter) ([]User, int64, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id string) error
}
