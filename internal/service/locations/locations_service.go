package locations

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ougirez/welfare-portal/internal/domain"
	"github.com/ougirez/welfare-portal/internal/pkg/logger"
	"github.com/ougirez/welfare-portal/internal/pkg/scope"
	"github.com/ougirez/welfare-portal/internal/pkg/utils"
)

type CatalogFetcher interface {
	FetchAccessibleLocations(ctx context.Context, auth *utils.AuthContext) (*domain.LocationCatalog, error)
}

// ScopeView is the filter state of a report page and the options it allows.
type ScopeView struct {
	Filters domain.FilterState `json:"filters"`
	Options scope.Options      `json:"options"`
	Changed bool               `json:"changed"`
}

const catalogFetchTimeout = 30 * time.Second

type cached struct {
	catalog   *domain.LocationCatalog
	fetchedAt time.Time
}

// Service keeps each token's catalog for ttl. A new token is a new identity
// and always triggers a fresh fetch.
type Service struct {
	api   CatalogFetcher
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group

	mx      sync.Mutex
	catalog map[string]cached
}

func NewLocationsService(api CatalogFetcher, ttl time.Duration) *Service {
	return &Service{
		api:     api,
		ttl:     ttl,
		now:     time.Now,
		catalog: make(map[string]cached),
	}
}

func (s *Service) Catalog(ctx context.Context, auth *utils.AuthContext) (*domain.LocationCatalog, error) {
	if c, ok := s.lookup(auth.Token); ok {
		return c, nil
	}

	// The fetch is shared by every caller on the token, so it must not end
	// with the first caller's request.
	ch := s.group.DoChan(auth.Token, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), catalogFetchTimeout)
		defer cancel()

		catalog, err := s.api.FetchAccessibleLocations(fetchCtx, auth)
		if err != nil {
			return nil, err
		}

		if refs := catalog.Validate(); len(refs) > 0 {
			logger.Warnf(ctx, "location catalog for user %s has %d dangling parent refs, first: %s",
				auth.UserID(), len(refs), refs[0])
		}

		s.store(auth.Token, catalog)
		return catalog, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("fetch accessible locations: %w", res.Err)
		}
		return res.Val.(*domain.LocationCatalog), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Service) lookup(token string) (*domain.LocationCatalog, bool) {
	if s.ttl <= 0 {
		return nil, false
	}

	s.mx.Lock()
	defer s.mx.Unlock()

	c, ok := s.catalog[token]
	if !ok {
		return nil, false
	}
	if s.now().Sub(c.fetchedAt) > s.ttl {
		delete(s.catalog, token)
		return nil, false
	}
	return c.catalog, true
}

func (s *Service) store(token string, catalog *domain.LocationCatalog) {
	if s.ttl <= 0 {
		return
	}

	s.mx.Lock()
	defer s.mx.Unlock()

	now := s.now()
	for k, c := range s.catalog {
		if now.Sub(c.fetchedAt) > s.ttl {
			delete(s.catalog, k)
		}
	}
	s.catalog[token] = cached{catalog: catalog, fetchedAt: now}
}

// Forget drops the cached catalog of a token, e.g. on logout.
func (s *Service) Forget(token string) {
	s.mx.Lock()
	defer s.mx.Unlock()

	delete(s.catalog, token)
}

func (s *Service) DefaultScope(ctx context.Context, auth *utils.AuthContext) (*ScopeView, error) {
	catalog, err := s.Catalog(ctx, auth)
	if err != nil {
		return nil, err
	}

	filters := scope.ResolveDefaultScope(catalog)
	return &ScopeView{
		Filters: filters,
		Options: scope.NarrowOptions(catalog, filters),
		Changed: len(filters) > 0,
	}, nil
}

func (s *Service) UpdateScope(
	ctx context.Context,
	auth *utils.AuthContext,
	current domain.FilterState,
	updates ...scope.Update,
) (*ScopeView, error) {
	catalog, err := s.Catalog(ctx, auth)
	if err != nil {
		return nil, err
	}

	if current == nil {
		current = domain.FilterState{}
	}
	next := scope.Apply(current, updates...)

	return &ScopeView{
		Filters: next,
		Options: scope.NarrowOptions(catalog, next),
		Changed: !next.Equal(current),
	}, nil
}
