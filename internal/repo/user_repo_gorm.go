package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gin-user-registry/internal/domain"
	"gin-user-registry/internal/feature/user"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	m := user.FromDomain(u)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isDupKey(err) {
			return domain.ErrEmailTaken
		}
		return err
	}
	return nil
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var m user.UserModel
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	u := m.ToDomain()
	return &u, nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var m user.UserModel
	err := r.db.WithContext(ctx).First(&m, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u := m.ToDomain()
	return &u, nil
}

func (r *UserRepo) List(ctx context.Context, f domain.UserFilter) ([]domain.User, int64, error) {
	q := r.db.WithContext(ctx).Model(&user.UserModel{})
	if f.ID != "" {
		q = q.Where("id = ?", f.ID)
	}
	if f.Gender != nil {
		q = q.Where("gender = ?", string(*f.Gender))
	}
	if f.Active != nil {
		q = q.Where("active = ?", *f.Active)
	}
	if f.Role != nil {
		// roles 以 JSON 数组存储
		q = q.Where("roles LIKE ?", `%"`+string(*f.Role)+`"%`)
	}
	for _, s := range []struct{ col, v string }{
		{"name", f.Name}, {"surname", f.Surname}, {"email", f.Email}, {"note", f.Note},
	} {
		if s.v != "" {
			q = q.Where(s.col+" LIKE ?"+user.LikeEscape, user.ContainsPattern(s.v))
		}
	}
	// Count 与 Find 共用条件
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	byID := false
	for _, o := range f.Order {
		q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: o.Field}, Desc: o.Desc})
		byID = byID || o.Field == "id"
	}
	if !byID {
		// id 按时间有序，兜底保证分页稳定
		q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}})
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}

	var rows []user.UserModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.User, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.ToDomain())
	}
	return out, total, nil
}

// Update 全字段覆盖（含零值），保留 created_at
func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	m := user.FromDomain(u)
	err := r.db.WithContext(ctx).
		Model(&user.UserModel{ID: u.ID}).
		Select("*").Omit("id", "created_at").
		Updates(&m).Error
	if err != nil && isDupKey(err) {
		return domain.ErrEmailTaken
	}
	return err
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&user.UserModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func isDupKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation") ||
		strings.Contains(msg, "duplicate key")
}
