package user

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gin-user-registry/internal/domain"
	"gin-user-registry/internal/service"
	"gin-user-registry/internal/transport/http/ez"
)

type Deps struct {
	Service *service.UserService
	DB      *gorm.DB
	List    ez.ListSpec
	Log     *zap.Logger
}

// Module 用户模块：/api/v1/users CRUD + /admin/v1/users 维护接口
type Module struct{ d Deps }

func NewModule(d Deps) *Module {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	d.List.Sortable = Sortable
	return &Module{d: d}
}

func (m *Module) Priority() int { return 10 }

func (m *Module) MountAPI(api *gin.RouterGroup) {
	ez.Crud(ez.CrudConfig[domain.User]{
		Group:    api,
		Path:     "/users",
		Resource: resource{svc: m.d.Service},
		List:     m.d.List,
		MapError: mapError,
		IDOf:     func(u *domain.User) string { return u.ID },
	})
}

func (m *Module) MountAdmin(admin *gin.RouterGroup) {
	e := ez.New(admin)

	// --- GET /admin/v1/users  用户列表 ---
	type listQ struct {
		Offset int    `form:"offset,default=0"`
		Limit  int    `form:"limit,default=20"`
		Q      string `form:"q"` // 按 email/name/surname 模糊搜
	}
	type row struct {
		ID        string    `json:"id"`
		Email     string    `json:"email"`
		Name      string    `json:"name"`
		Surname   string    `json:"surname"`
		Roles     []string  `json:"roles"`
		Active    bool      `json:"active"`
		CreatedAt time.Time `json:"createdAt"`
	}
	type listOut struct {
		Total int64 `json:"total"`
		Items []row `json:"items"`
	}

	ez.RegisterAction(e, m.d.DB, ez.Action[listQ, listOut]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, tx *gorm.DB, in *listQ) (listOut, error) {
			if in.Limit <= 0 || in.Limit > 100 {
				in.Limit = 20
			}
			if in.Offset < 0 {
				in.Offset = 0
			}
			q := tx.Model(&UserModel{})
			if s := strings.TrimSpace(in.Q); s != "" {
				like := ContainsPattern(s)
				q = q.Where("email LIKE ?"+LikeEscape+" OR name LIKE ?"+LikeEscape+" OR surname LIKE ?"+LikeEscape, like, like, like)
			}
			q = q.Session(&gorm.Session{})

			var total int64
			if err := q.Count(&total).Error; err != nil {
				return listOut{}, ez.Internal("count users failed", err)
			}

			var us []UserModel
			if err := q.Order("created_at DESC").Order("id DESC").Limit(in.Limit).Offset(in.Offset).Find(&us).Error; err != nil {
				return listOut{}, ez.Internal("list users failed", err)
			}

			out := listOut{Total: total, Items: make([]row, 0, len(us))}
			for _, u := range us {
				out.Items = append(out.Items, row{
					ID: u.ID, Email: u.Email, Name: u.Name, Surname: u.Surname,
					Roles: u.Roles, Active: u.Active, CreatedAt: u.CreatedAt,
				})
			}
			return out, nil
		},
	})

	// --- POST /admin/v1/users/:id/deactivate  停用 ---
	ez.RegisterAction(e, m.d.DB, ez.Action[struct{}, domain.User]{
		Method: http.MethodPost,
		Path:   "/users/:id/deactivate",
		Binder: ez.BindNone,
		UseTx:  true,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (domain.User, error) {
			id := c.Param("id")
			var u UserModel
			if err := tx.First(&u, "id = ?", id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domain.User{}, ez.NotFound("Not Found")
				}
				return domain.User{}, ez.Internal("load user failed", err)
			}
			if err := tx.Model(&u).Update("active", false).Error; err != nil {
				return domain.User{}, ez.Internal("deactivate user failed", err)
			}
			m.d.Log.Info("user deactivated", zap.String("id", id))
			u.Active = false
			return u.ToDomain(), nil
		},
	})
}
