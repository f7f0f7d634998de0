package ez

import (
	"context"
	"errors"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	resp "gin-user-registry/internal/transport/http/response"
)

// Resource 由业务层实现；请求体原样交给业务层解析
type Resource[T any] interface {
	Create(ctx context.Context, body []byte) (*T, error)
	Get(ctx context.Context, id string) (*T, error)
	List(ctx context.Context, q ListQuery) ([]T, int64, error)
	Replace(ctx context.Context, id string, body []byte) (*T, error)
	Patch(ctx context.Context, id string, body []byte) (*T, error)
	Delete(ctx context.Context, id string) error
}

const (
	ParamPageSize   = "page-size"
	ParamPageNumber = "page-number"
	paramOrderBy    = "order-by"
)

// ListSpec 列表参数约束
type ListSpec struct {
	DefaultSize int
	MaxSize     int
	Sortable    []string // 允许 order-by[field] 的字段，按声明顺序生效
}

type Order struct {
	Field string
	Desc  bool
}

// ListQuery 解析后的列表参数；Params 为剩余的过滤参数
type ListQuery struct {
	Page   int
	Size   int
	Order  []Order
	Params url.Values
}

func (q ListQuery) Offset() int { return (q.Page - 1) * q.Size }

type CrudConfig[T any] struct {
	Group    *gin.RouterGroup
	Path     string
	Resource Resource[T]
	List     ListSpec

	// MapError 把业务错误翻译成 AErr；未翻译的按 500 处理
	MapError func(error) error
	// IDOf 用于 201 的 Location 头
	IDOf func(*T) string
}

// Crud 注册 GET(list) / POST / GET / PUT / PATCH / DELETE
func Crud[T any](cfg CrudConfig[T]) {
	if cfg.List.DefaultSize <= 0 {
		cfg.List.DefaultSize = 30
	}
	if cfg.List.MaxSize <= 0 {
		cfg.List.MaxSize = 100
	}
	if cfg.MapError == nil {
		cfg.MapError = func(err error) error { return err }
	}
	fail := func(c *gin.Context, err error) { Fail(c, cfg.MapError(err)) }
	item := cfg.Path + "/:id"

	// List
	cfg.Group.GET(cfg.Path, func(c *gin.Context) {
		q, err := ParseListQuery(c.Request.URL.Query(), cfg.List)
		if err != nil {
			Fail(c, err)
			return
		}
		items, total, err := cfg.Resource.List(c.Request.Context(), q)
		if err != nil {
			fail(c, err)
			return
		}
		if items == nil {
			items = []T{}
		}
		c.JSON(http.StatusOK, resp.Collection[T]{
			TotalItems: total,
			Member:     items,
			View:       BuildView(c.Request.URL.Path, c.Request.URL.Query(), q, total),
		})
	})

	// Create
	cfg.Group.POST(cfg.Path, func(c *gin.Context) {
		body, err := readBody(c)
		if err != nil {
			Fail(c, err)
			return
		}
		m, err := cfg.Resource.Create(c.Request.Context(), body)
		if err != nil {
			fail(c, err)
			return
		}
		if cfg.IDOf != nil {
			c.Header("Location", strings.TrimSuffix(c.Request.URL.Path, "/")+"/"+url.PathEscape(cfg.IDOf(m)))
		}
		c.JSON(http.StatusCreated, m)
	})

	// Get
	cfg.Group.GET(item, func(c *gin.Context) {
		m, err := cfg.Resource.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, m)
	})

	// Replace / Patch
	update := func(op func(context.Context, string, []byte) (*T, error)) gin.HandlerFunc {
		return func(c *gin.Context) {
			body, err := readBody(c)
			if err != nil {
				Fail(c, err)
				return
			}
			m, err := op(c.Request.Context(), c.Param("id"), body)
			if err != nil {
				fail(c, err)
				return
			}
			c.JSON(http.StatusOK, m)
		}
	}
	cfg.Group.PUT(item, update(cfg.Resource.Replace))
	cfg.Group.PATCH(item, update(cfg.Resource.Patch))

	// Delete
	cfg.Group.DELETE(item, func(c *gin.Context) {
		if err := cfg.Resource.Delete(c.Request.Context(), c.Param("id")); err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})
}

func readBody(c *gin.Context) ([]byte, error) {
	if c.Request.Body == nil {
		return nil, nil
	}
	b, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, TooLarge(err)
		}
		return nil, BadRequest("cannot read request body")
	}
	return b, nil
}

// ParseListQuery 分页、排序参数非法时返回 400；page-size 超上限时截断
func ParseListQuery(v url.Values, spec ListSpec) (ListQuery, error) {
	q := ListQuery{Page: 1, Size: spec.DefaultSize, Params: url.Values{}}

	if s, ok := lookup(v, ParamPageNumber); ok {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return q, BadRequest(`"page-number" must be a positive integer.`)
		}
		q.Page = n
	}
	if s, ok := lookup(v, ParamPageSize); ok {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return q, BadRequest(`"page-size" must be a positive integer.`)
		}
		q.Size = n
		if spec.MaxSize > 0 {
			q.Size = min(n, spec.MaxSize)
		}
	}
	if q.Size > 0 && q.Page-1 > math.MaxInt/q.Size {
		return q, BadRequest(`"page-number" is out of range.`)
	}

	dirs := map[string]string{}
	for k, vals := range v {
		switch {
		case k == ParamPageNumber || k == ParamPageSize:
		case strings.HasPrefix(k, paramOrderBy+"[") && strings.HasSuffix(k, "]"):
			field := k[len(paramOrderBy)+1 : len(k)-1]
			if !contains(spec.Sortable, field) {
				return q, BadRequest(`Unknown "order-by" field "` + field + `".`)
			}
			dir := strings.ToLower(vals[len(vals)-1])
			if dir != "asc" && dir != "desc" {
				return q, BadRequest(`"order-by[` + field + `]" must be "asc" or "desc".`)
			}
			dirs[field] = dir
		default:
			q.Params[k] = vals
		}
	}
	for _, f := range spec.Sortable {
		if d, ok := dirs[f]; ok {
			q.Order = append(q.Order, Order{Field: f, Desc: d == "desc"})
		}
	}
	return q, nil
}

// BuildView 多于一页或请求了非首页时生成分页链接
func BuildView(path string, v url.Values, q ListQuery, total int64) *resp.View {
	if q.Size <= 0 {
		return nil
	}
	last := 1
	if total > 0 {
		last = int((total + int64(q.Size) - 1) / int64(q.Size))
	}
	if last <= 1 && q.Page <= 1 {
		return nil
	}
	link := func(page int) string {
		cp := url.Values{}
		for k, vals := range v {
			cp[k] = vals
		}
		cp.Set(ParamPageNumber, strconv.Itoa(page))
		return path + "?" + cp.Encode()
	}
	view := &resp.View{ID: link(q.Page), First: link(1), Last: link(last)}
	if q.Page > 1 {
		view.Previous = link(min(q.Page-1, last))
	}
	if q.Page < last {
		view.Next = link(q.Page + 1)
	}
	return view
}

func lookup(v url.Values, key string) (string, bool) {
	vals, ok := v[key]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[len(vals)-1], true
}

func contains(list []string, s string) bool {
	for _, it := range list {
		if it == s {
			return true
		}
	}
	return false
}
