package user

import (
	"context"
	"errors"
	"strings"

	"gin-user-registry/internal/domain"
	"gin-user-registry/internal/service"
	"gin-user-registry/internal/transport/http/ez"
	resp "gin-user-registry/internal/transport/http/response"
	"gin-user-registry/internal/validation"
)

// Sortable 允许 order-by[...] 的字段
var Sortable = []string{"id", "name", "surname", "email", "gender", "active"}

const msgIdentifierRefused = "Modification of resource identifier value refused."

// resource 把 UserService 适配成 ez.Resource
type resource struct{ svc *service.UserService }

var _ ez.Resource[domain.User] = resource{}

func (r resource) Create(ctx context.Context, body []byte) (*domain.User, error) {
	return r.svc.Create(ctx, body)
}

func (r resource) Get(ctx context.Context, id string) (*domain.User, error) {
	return r.svc.Get(ctx, id)
}

func (r resource) List(ctx context.Context, q ez.ListQuery) ([]domain.User, int64, error) {
	f, err := filterFrom(q)
	if err != nil {
		return nil, 0, err
	}
	return r.svc.List(ctx, f)
}

func (r resource) Replace(ctx context.Context, id string, body []byte) (*domain.User, error) {
	return r.svc.Replace(ctx, id, body)
}

func (r resource) Patch(ctx context.Context, id string, body []byte) (*domain.User, error) {
	return r.svc.Patch(ctx, id, body)
}

func (r resource) Delete(ctx context.Context, id string) error {
	return r.svc.Delete(ctx, id)
}

// filterFrom 过滤参数非法时返回 400
func filterFrom(q ez.ListQuery) (domain.UserFilter, error) {
	f := domain.UserFilter{Offset: q.Offset(), Limit: q.Size}
	for _, o := range q.Order {
		f.Order = append(f.Order, domain.OrderBy{Field: o.Field, Desc: o.Desc})
	}
	p := q.Params

	f.ID = p.Get("id")
	if s := p.Get("gender"); s != "" {
		g, ok := domain.ParseGender(s)
		if !ok {
			return f, ez.BadRequest(`Invalid "gender" filter value "` + s + `".`)
		}
		f.Gender = &g
	}
	if s := p.Get("roles"); s != "" {
		r, ok := domain.ParseRole(s)
		if !ok {
			return f, ez.BadRequest(`Invalid "roles" filter value "` + s + `".`)
		}
		f.Role = &r
	}
	if s := p.Get("active"); s != "" {
		var b bool
		switch strings.ToLower(s) {
		case "true", "1":
			b = true
		case "false", "0":
		default:
			return f, ez.BadRequest(`Invalid "active" filter value "` + s + `".`)
		}
		f.Active = &b
	}
	f.Name = strings.TrimSpace(p.Get("name"))
	f.Surname = strings.TrimSpace(p.Get("surname"))
	f.Email = strings.TrimSpace(p.Get("email"))
	f.Note = strings.TrimSpace(p.Get("note"))
	return f, nil
}

// mapError 业务错误 → HTTP
func mapError(err error) error {
	var (
		ae *ez.AErr
		te *validation.TypeError
		vs validation.Violations
	)
	switch {
	case errors.As(err, &ae):
		return ae
	case errors.As(err, &te):
		return ez.BadRequest(te.Error())
	case errors.As(err, &vs):
		out := make([]resp.Violation, 0, len(vs))
		for _, v := range vs {
			out = append(out, resp.Violation{PropertyPath: v.Path, Message: v.Message})
		}
		return ez.Unprocessable(out)
	case errors.Is(err, domain.ErrUserNotFound):
		return ez.NotFound("Not Found")
	case errors.Is(err, domain.ErrIdentifierMismatch):
		return ez.BadRequest(msgIdentifierRefused)
	}
	return err
}
