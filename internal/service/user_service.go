package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"gin-user-registry/internal/domain"
	"gin-user-registry/internal/validation"
	"gin-user-registry/pkg/utils"
)

var violationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{Name: "user_validation_violations_total", Help: "Count of user validation violations"},
	[]string{"field"},
)

func init() { prometheus.MustRegister(violationsTotal) }

type UserService struct {
	repo domain.UserRepository
	log  *zap.Logger
}

func NewUserService(repo domain.UserRepository, l *zap.Logger) *UserService {
	if l == nil {
		l = zap.NewNop()
	}
	return &UserService{repo: repo, log: l}
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *UserService) List(ctx context.Context, f domain.UserFilter) ([]domain.User, int64, error) {
	return s.repo.List(ctx, f)
}

// Create 客户端传入的 id 忽略，由服务端生成
func (s *UserService) Create(ctx context.Context, body []byte) (*domain.User, error) {
	raw, err := decodeObject(body)
	if err != nil {
		return nil, err
	}
	if err := requireAll(raw); err != nil {
		return nil, err
	}
	p, err := parseUserPayload(raw)
	if err != nil {
		return nil, err
	}
	c := &candidate{}
	c.apply(p)
	return s.persist(ctx, c, "", s.repo.Create)
}

// Replace 整体替换（PUT）：所有必填字段都要出现，未出现的 note 置空
func (s *UserService) Replace(ctx context.Context, id string, body []byte) (*domain.User, error) {
	return s.update(ctx, id, body, true)
}

// Patch 局部更新：未出现的字段保持原值
func (s *UserService) Patch(ctx context.Context, id string, body []byte) (*domain.User, error) {
	return s.update(ctx, id, body, false)
}

func (s *UserService) update(ctx context.Context, id string, body []byte, full bool) (*domain.User, error) {
	cur, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	raw, err := decodeObject(body)
	if err != nil {
		return nil, err
	}
	// 先于字段解析与校验
	if err := guardIdentifier(raw, id); err != nil {
		s.log.Warn("identifier tampering refused", zap.String("id", id))
		return nil, err
	}
	c := fromUser(cur)
	if full {
		if err := requireAll(raw); err != nil {
			return nil, err
		}
		c = &candidate{}
	}
	p, err := parseUserPayload(raw)
	if err != nil {
		return nil, err
	}
	c.apply(p)
	return s.persist(ctx, c, cur.ID, s.repo.Update)
}

// Delete 不经过预处理，直接交给存储
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("user deleted", zap.String("id", id))
	return nil
}

func (s *UserService) persist(ctx context.Context, c *candidate, id string, write func(context.Context, *domain.User) error) (*domain.User, error) {
	normalize(c)

	vs, err := validation.UserSchema(s.emailAvailable(id)).Validate(ctx, c.values())
	if err != nil {
		return nil, err
	}
	if !vs.Empty() {
		s.observe(vs)
		return nil, vs
	}

	created := id == ""
	if created {
		id = utils.NewID()
	}
	u := c.toUser(id)
	if err := write(ctx, u); err != nil {
		// 并发下预检查可能放行，以存储唯一索引为准
		if errors.Is(err, domain.ErrEmailTaken) {
			vs := validation.Violations{{Path: "email", Message: validation.MsgAlreadyUsed}}
			s.observe(vs)
			return nil, vs
		}
		s.log.Error("persist user failed", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("persist user %s: %w", id, err)
	}

	if created {
		s.log.Info("user created", zap.String("id", id))
	} else {
		s.log.Info("user updated", zap.String("id", id))
	}
	return u, nil
}

// emailAvailable 预检查，selfID 为当前资源（更新时排除自己）
func (s *UserService) emailAvailable(selfID string) validation.Rule {
	return func(ctx context.Context, path string, v any) (validation.Violations, error) {
		email, ok := v.(string)
		if !ok || email == "" {
			return nil, nil
		}
		other, err := s.repo.FindByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("lookup email: %w", err)
		}
		if other != nil && other.ID != selfID {
			return validation.Violations{{Path: path, Message: validation.MsgAlreadyUsed}}, nil
		}
		return nil, nil
	}
}

func (s *UserService) observe(vs validation.Violations) {
	for _, v := range vs {
		violationsTotal.WithLabelValues(v.Path).Inc()
	}
}
