package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hr-onboarding/employee-wizard/backend/internal/domain"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "wizard-draft"

var ErrNoDraft = errors.New("没有草稿")

// Store 按向导角色保存一份未提交的表单，admin 和 ops 的草稿互不影响
type Store struct {
	rdb     redis.Cmdable
	ttl     time.Duration
	timeout time.Duration
}

func New(rdb redis.Cmdable, ttl, timeout time.Duration) *Store {
	return &Store{
		rdb:     rdb,
		ttl:     ttl,
		timeout: timeout,
	}
}

func Key(role domain.OperatorRole) string {
	return fmt.Sprintf("%s-%s", keyPrefix, role)
}

func (s *Store) Save(ctx context.Context, role domain.OperatorRole, form domain.WizardFormData) error {
	data, err := json.Marshal(form)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.rdb.Set(ctx, Key(role), data, s.ttl).Err()
}

// Load 返回该角色的草稿，不存在或者内容无法解析时返回 ErrNoDraft
func (s *Store) Load(ctx context.Context, role domain.OperatorRole) (*domain.WizardFormData, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	data, err := s.rdb.Get(ctx, Key(role)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoDraft
		}
		return nil, err
	}

	form := &domain.WizardFormData{}
	if err := json.Unmarshal(data, form); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDraft, err)
	}

	return form, nil
}

func (s *Store) Clear(ctx context.Context, role domain.OperatorRole) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.rdb.Del(ctx, Key(role)).Err()
}
