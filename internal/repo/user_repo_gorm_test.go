package repo

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gin-user-registry/internal/domain"
	"gin-user-registry/internal/feature/user"
)

func newDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&user.UserModel{}))
	return db
}

func sample(id, email string) *domain.User {
	note := "n-" + id
	return &domain.User{
		ID:      id,
		Name:    "Name " + strings.ToUpper(id),
		Surname: "Surname",
		Email:   email,
		Gender:  domain.GenderMale,
		Roles:   []domain.Role{domain.RoleUser, domain.RoleWorker},
		Note:    &note,
		Active:  true,
	}
}

func TestUserRepo_CRUD(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepo(newDB(t))

	u := sample("a", "a@example.com")
	require.NoError(t, r.Create(ctx, u))

	got, err := r.FindByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, *u, *got)

	byEmail, err := r.FindByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, "a", byEmail.ID)

	none, err := r.FindByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, none)

	// 全量覆盖：note 置空、active 改为 false 也要写入
	u.Note = nil
	u.Active = false
	u.Roles = []domain.Role{domain.RoleAdmin}
	require.NoError(t, r.Update(ctx, u))
	got, err = r.FindByID(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, got.Note)
	assert.False(t, got.Active)
	assert.Equal(t, []domain.Role{domain.RoleAdmin}, got.Roles)

	require.NoError(t, r.Delete(ctx, "a"))
	_, err = r.FindByID(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.ErrorIs(t, r.Delete(ctx, "a"), domain.ErrUserNotFound)
}

func TestUserRepo_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepo(newDB(t))

	require.NoError(t, r.Create(ctx, sample("a", "a@example.com")))
	require.NoError(t, r.Create(ctx, sample("b", "b@example.com")))

	assert.ErrorIs(t, r.Create(ctx, sample("c", "a@example.com")), domain.ErrEmailTaken)
	assert.ErrorIs(t, r.Update(ctx, sample("b", "a@example.com")), domain.ErrEmailTaken)
}

func TestUserRepo_List(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepo(newDB(t))

	a := sample("a", "anna@example.com")
	b := sample("b", "bert@example.com")
	b.Gender = domain.GenderFemale
	b.Roles = []domain.Role{domain.RoleAdmin}
	c := sample("c", "carl@example.org")
	c.Active = false
	for _, u := range []*domain.User{a, b, c} {
		require.NoError(t, r.Create(ctx, u))
	}

	ids := func(us []domain.User) []string {
		out := make([]string, 0, len(us))
		for _, u := range us {
			out = append(out, u.ID)
		}
		return out
	}

	all, total, err := r.List(ctx, domain.UserFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, []string{"a", "b", "c"}, ids(all))

	page, total, err := r.List(ctx, domain.UserFilter{
		Order: []domain.OrderBy{{Field: "email", Desc: true}}, Offset: 1, Limit: 1,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, []string{"b"}, ids(page))

	male := domain.GenderMale
	active := true
	got, total, err := r.List(ctx, domain.UserFilter{Gender: &male, Active: &active})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, []string{"a"}, ids(got))

	admin := domain.RoleAdmin
	got, _, err = r.List(ctx, domain.UserFilter{Role: &admin})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids(got))

	got, _, err = r.List(ctx, domain.UserFilter{Email: "example.org"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, ids(got))

	got, _, err = r.List(ctx, domain.UserFilter{ID: "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids(got))
}

func TestUserRepo_ListSubstringIsLiteral(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepo(newDB(t))

	require.NoError(t, r.Create(ctx, sample("a", "alice@example.com")))
	require.NoError(t, r.Create(ctx, sample("b", "bob@example.com")))
	odd := sample("c", "c_100%!x@example.com")
	require.NoError(t, r.Create(ctx, odd))

	count := func(f domain.UserFilter) []string {
		t.Helper()
		us, _, err := r.List(ctx, f)
		require.NoError(t, err)
		out := make([]string, 0, len(us))
		for _, u := range us {
			out = append(out, u.ID)
		}
		return out
	}

	// 通配符按字面匹配
	assert.Equal(t, []string{"c"}, count(domain.UserFilter{Email: "%"}))
	assert.Equal(t, []string{"c"}, count(domain.UserFilter{Email: "_"}))
	assert.Equal(t, []string{"c"}, count(domain.UserFilter{Email: "!"}))
	assert.Equal(t, []string{"c"}, count(domain.UserFilter{Email: "100%!x"}))
	assert.Empty(t, count(domain.UserFilter{Email: "a%e"}))
	assert.Equal(t, []string{"a"}, count(domain.UserFilter{Email: "alice"}))
}
