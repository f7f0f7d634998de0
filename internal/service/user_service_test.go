package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gin-user-registry/internal/domain"
	"gin-user-registry/internal/validation"
)

const validBody = `{
	"name": "Emily-rose Ebony-M'Lynn",
	"surname": "d'Bosco-Dolor",
	"email": "emily@example.com",
	"gender": "FEMALE",
	"roles": ["ADMIN", "USER"],
	"note": "Lorem ipsum",
	"active": true
}`

func newTestService() (*UserService, *fakeRepo) {
	repo := newFakeRepo()
	return NewUserService(repo, zap.NewNop()), repo
}

func violationsOf(t *testing.T, err error) validation.Violations {
	t.Helper()
	var vs validation.Violations
	require.True(t, errors.As(err, &vs), "expected violations, got %v", err)
	return vs
}

func requireTypeError(t *testing.T, err error) *validation.TypeError {
	t.Helper()
	var te *validation.TypeError
	require.True(t, errors.As(err, &te), "expected type error, got %v", err)
	return te
}

func TestCreateUser(t *testing.T) {
	svc, repo := newTestService()

	u, err := svc.Create(context.Background(), []byte(validBody))

	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	assert.Equal(t, "Emily-rose Ebony-M'Lynn", u.Name)
	assert.Equal(t, domain.GenderFemale, u.Gender)
	assert.Equal(t, []domain.Role{domain.RoleAdmin, domain.RoleUser}, u.Roles)
	require.NotNil(t, u.Note)
	assert.True(t, u.Active)
	assert.Equal(t, 1, repo.count())
}

func TestCreateIgnoresClientID(t *testing.T) {
	svc, _ := newTestService()
	body := `{"id":"forged","name":"Lorem","surname":"Ipsum","email":"a@example.com","gender":"MALE","roles":["USER"],"active":false}`

	u, err := svc.Create(context.Background(), []byte(body))

	require.NoError(t, err)
	assert.NotEqual(t, "forged", u.ID)
}

func TestCreateTrimsTextBeforeValidation(t *testing.T) {
	svc, _ := newTestService()
	body := "{\"name\":\"\\u00a0Lorem\\u2028\",\"surname\":\" Ipsum \",\"email\":\" a@example.com\\t\",\"gender\":\"MALE\",\"roles\":[\"USER\"],\"note\":\"\\u3000\",\"active\":true}"

	u, err := svc.Create(context.Background(), []byte(body))

	require.NoError(t, err)
	assert.Equal(t, "Lorem", u.Name)
	assert.Equal(t, "Ipsum", u.Surname)
	assert.Equal(t, "a@example.com", u.Email)
	assert.Nil(t, u.Note, "whitespace-only note is absent")
}

func TestCreateDuplicateRoles(t *testing.T) {
	svc, repo := newTestService()
	body := `{"name":"Lorem","surname":"Ipsum","email":"a@example.com","gender":"MALE","roles":["ADMIN","USER","ADMIN"],"active":true}`

	_, err := svc.Create(context.Background(), []byte(body))

	vs := violationsOf(t, err)
	assert.Equal(t, validation.Violations{{Path: "roles", Message: "The collection contains duplicate values."}}, vs)
	assert.Equal(t, 0, repo.count())
}

func TestCreateDuplicateEmail(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Create(context.Background(), []byte(validBody))
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), []byte(validBody))

	vs := violationsOf(t, err)
	assert.Equal(t, validation.Violations{{Path: "email", Message: "This value is already used."}}, vs)
}

func TestCreateStoreLevelDuplicateIsViolation(t *testing.T) {
	svc, repo := newTestService()
	repo.hideEmails = true // 预检查看不到，模拟并发
	_, err := svc.Create(context.Background(), []byte(validBody))
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), []byte(validBody))

	vs := violationsOf(t, err)
	assert.Equal(t, validation.Violations{{Path: "email", Message: validation.MsgAlreadyUsed}}, vs)
}

func TestCreateShapeErrors(t *testing.T) {
	cases := map[string]string{
		"empty body":          ``,
		"malformed json":      `{"name":`,
		"array body":          `[1,2]`,
		"missing field":       `{"name":"Lorem","surname":"Ipsum","email":"a@example.com","gender":"MALE","roles":["USER"]}`,
		"name not string":     `{"name":12,"surname":"Ipsum","email":"a@example.com","gender":"MALE","roles":["USER"],"active":true}`,
		"lowercase gender":    `{"name":"Lorem","surname":"Ipsum","email":"a@example.com","gender":"male","roles":["USER"],"active":true}`,
		"unknown role":        `{"name":"Lorem","surname":"Ipsum","email":"a@example.com","gender":"MALE","roles":["ROOT"],"active":true}`,
		"role wrong case":     `{"name":"Lorem","surname":"Ipsum","email":"a@example.com","gender":"MALE","roles":["admin"],"active":true}`,
		"roles not array":     `{"name":"Lorem","surname":"Ipsum","email":"a@example.com","gender":"MALE","roles":"USER","active":true}`,
		"active as string":    `{"name":"Lorem","surname":"Ipsum","email":"a@example.com","gender":"MALE","roles":["USER"],"active":"true"}`,
		"active as number":    `{"name":"Lorem","surname":"Ipsum","email":"a@example.com","gender":"MALE","roles":["USER"],"active":1}`,
		"note not string":     `{"name":"Lorem","surname":"Ipsum","email":"a@example.com","gender":"MALE","roles":["USER"],"note":[],"active":true}`,
		"gender not a string": `{"name":"Lorem","surname":"Ipsum","email":"a@example.com","gender":1,"roles":["USER"],"active":true}`,
	}
	svc, repo := newTestService()
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), []byte(body))
			requireTypeError(t, err)
		})
	}
	assert.Equal(t, 0, repo.count())
}

func TestCreateNullRequiredIsViolation(t *testing.T) {
	svc, _ := newTestService()
	body := `{"name":null,"surname":"Ipsum","email":"a@example.com","gender":null,"roles":["USER"],"active":null}`

	_, err := svc.Create(context.Background(), []byte(body))

	vs := violationsOf(t, err)
	assert.Equal(t, validation.Violations{
		{Path: "name", Message: validation.MsgNotBlank},
		{Path: "gender", Message: validation.MsgNotNull},
		{Path: "active", Message: validation.MsgNotNull},
	}, vs)
}

func TestPatchWithMatchingID(t *testing.T) {
	svc, _ := newTestService()
	u, err := svc.Create(context.Background(), []byte(validBody))
	require.NoError(t, err)

	got, err := svc.Patch(context.Background(), u.ID, []byte(`{"id":"`+u.ID+`","surname":"Dolor"}`))

	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "Dolor", got.Surname)
	assert.Equal(t, u.Name, got.Name)
	assert.Equal(t, u.Note, got.Note)
}

func TestPatchWithDifferentIDRefused(t *testing.T) {
	svc, repo := newTestService()
	u, err := svc.Create(context.Background(), []byte(validBody))
	require.NoError(t, err)

	// id 检查先于字段校验：即便 name 非法也只报 id 错误
	_, err = svc.Patch(context.Background(), u.ID, []byte(`{"id":"other","name":"lorem"}`))

	assert.ErrorIs(t, err, domain.ErrIdentifierMismatch)
	stored, _ := repo.FindByID(context.Background(), u.ID)
	assert.Equal(t, u.Name, stored.Name)
}

func TestPatchNumericIDComparedAsString(t *testing.T) {
	svc, repo := newTestService()
	repo.users["42"] = domain.User{ID: "42", Name: "Lorem", Surname: "Ipsum", Email: "x@example.com", Gender: domain.GenderMale, Roles: []domain.Role{domain.RoleUser}, Active: true}

	got, err := svc.Patch(context.Background(), "42", []byte(`{"id":42,"active":false}`))

	require.NoError(t, err)
	assert.False(t, got.Active)
}

func TestPatchUnknownUser(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Patch(context.Background(), "missing", []byte(`{}`))
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestPatchKeepsOwnEmail(t *testing.T) {
	svc, _ := newTestService()
	u, err := svc.Create(context.Background(), []byte(validBody))
	require.NoError(t, err)

	_, err = svc.Patch(context.Background(), u.ID, []byte(`{"email":"emily@example.com"}`))
	assert.NoError(t, err)
}

func TestPatchNullNoteClears(t *testing.T) {
	svc, _ := newTestService()
	u, err := svc.Create(context.Background(), []byte(validBody))
	require.NoError(t, err)

	got, err := svc.Patch(context.Background(), u.ID, []byte(`{"note":null}`))
	require.NoError(t, err)
	assert.Nil(t, got.Note)
}

func TestReplaceRequiresEveryField(t *testing.T) {
	svc, _ := newTestService()
	u, err := svc.Create(context.Background(), []byte(validBody))
	require.NoError(t, err)

	_, err = svc.Replace(context.Background(), u.ID, []byte(`{"name":"Lorem"}`))
	te := requireTypeError(t, err)
	assert.Equal(t, "surname", te.Path)

	body := `{"name":"Lorem","surname":"Ipsum","email":"b@example.com","gender":"MALE","roles":["WORKER"],"active":false}`
	got, err := svc.Replace(context.Background(), u.ID, []byte(body))
	require.NoError(t, err)
	assert.Equal(t, "Lorem", got.Name)
	assert.Nil(t, got.Note, "absent note is cleared on full replace")
	assert.Equal(t, []domain.Role{domain.RoleWorker}, got.Roles)
}

func TestReplaceWithDifferentIDRefused(t *testing.T) {
	svc, _ := newTestService()
	u, err := svc.Create(context.Background(), []byte(validBody))
	require.NoError(t, err)

	_, err = svc.Replace(context.Background(), u.ID, []byte(`{"id":"x"}`))
	assert.ErrorIs(t, err, domain.ErrIdentifierMismatch)
}

func TestUpdateEmailTakenByAnother(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Create(context.Background(), []byte(validBody))
	require.NoError(t, err)
	other, err := svc.Create(context.Background(), []byte(`{"name":"Lorem","surname":"Ipsum","email":"b@example.com","gender":"MALE","roles":["USER"],"active":true}`))
	require.NoError(t, err)

	_, err = svc.Patch(context.Background(), other.ID, []byte(`{"email":"emily@example.com"}`))

	vs := violationsOf(t, err)
	assert.Equal(t, validation.Violations{{Path: "email", Message: validation.MsgAlreadyUsed}}, vs)
}

func TestDelete(t *testing.T) {
	svc, repo := newTestService()
	u, err := svc.Create(context.Background(), []byte(validBody))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), u.ID))
	assert.Equal(t, 0, repo.count())
	assert.ErrorIs(t, svc.Delete(context.Background(), u.ID), domain.ErrUserNotFound)
}

type fakeRepo struct {
	mu         sync.Mutex
	users      map[string]domain.User
	hideEmails bool
}

func newFakeRepo() *fakeRepo { return &fakeRepo{users: map[string]domain.User{}} }

func (r *fakeRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

func (r *fakeRepo) emailOwner(email string) (string, bool) {
	for id, u := range r.users {
		if u.Email == email {
			return id, true
		}
	}
	return "", false
}

func (r *fakeRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.emailOwner(u.Email); ok {
		return domain.ErrEmailTaken
	}
	r.users[u.ID] = *u
	return nil
}

func (r *fakeRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (r *fakeRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hideEmails {
		return nil, nil
	}
	id, ok := r.emailOwner(email)
	if !ok {
		return nil, nil
	}
	u := r.users[id]
	return &u, nil
}

func (r *fakeRepo) List(_ context.Context, _ domain.UserFilter) ([]domain.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, int64(len(out)), nil
}

func (r *fakeRepo) Update(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.emailOwner(u.Email); ok && id != u.ID {
		return domain.ErrEmailTaken
	}
	r.users[u.ID] = *u
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}
