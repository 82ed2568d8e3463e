package store

import (
	"context"

	"github.com/ougirez/welfare-portal/internal/domain"
	"github.com/ougirez/welfare-portal/internal/pkg/store/xpgx"
)

type Pool = xpgx.Pool

type Store interface {
	EnsureSchema(ctx context.Context) error
	InsertAPICheck(ctx context.Context, check *domain.APICheck) (*domain.APICheck, error)
	ListAPIChecks(ctx context.Context, opts ListAPIChecksOpts) ([]*domain.APICheck, error)
}

type store struct {
	pool Pool
}

func NewStore(pool Pool) Store {
	return &store{pool}
}
