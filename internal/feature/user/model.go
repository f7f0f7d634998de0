package user

import (
	"strings"
	"time"

	"gin-user-registry/internal/domain"
)

// UserModel users 表行结构
type UserModel struct {
	ID      string   `gorm:"primaryKey;type:varchar(36)"`
	Name    string   `gorm:"size:48;not null"`
	Surname string   `gorm:"size:255;not null"`
	Email   string   `gorm:"uniqueIndex;size:255;not null"`
	Gender  string   `gorm:"size:8;not null;index"`
	Roles   []string `gorm:"serializer:json;type:text;not null"` // ["ADMIN","USER"]
	Note    *string  `gorm:"type:text"`
	Active  bool     `gorm:"not null;index"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string { return "users" }

func FromDomain(u *domain.User) UserModel {
	roles := make([]string, len(u.Roles))
	for i, r := range u.Roles {
		roles[i] = string(r)
	}
	return UserModel{
		ID:      u.ID,
		Name:    u.Name,
		Surname: u.Surname,
		Email:   u.Email,
		Gender:  string(u.Gender),
		Roles:   roles,
		Note:    u.Note,
		Active:  u.Active,
	}
}

func (m UserModel) ToDomain() domain.User {
	roles := make([]domain.Role, len(m.Roles))
	for i, r := range m.Roles {
		roles[i] = domain.Role(r)
	}
	var note *string
	if m.Note != nil && *m.Note != "" {
		n := *m.Note
		note = &n
	}
	return domain.User{
		ID:      m.ID,
		Name:    m.Name,
		Surname: m.Surname,
		Email:   m.Email,
		Gender:  domain.Gender(m.Gender),
		Roles:   roles,
		Note:    note,
		Active:  m.Active,
	}
}

// likeEscaper LIKE 通配符按字面匹配，'!' 作转义符
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// ContainsPattern 子串匹配的 LIKE 参数，配合 LikeEscape 使用
func ContainsPattern(s string) string { return "%" + likeEscaper.Replace(s) + "%" }

// LikeEscape 跟在 "col LIKE ?" 之后
const LikeEscape = " ESCAPE '!'"
