package locations

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ougirez/welfare-portal/internal/domain"
	"github.com/ougirez/welfare-portal/internal/pkg/constants"
	"github.com/ougirez/welfare-portal/internal/pkg/scope"
	"github.com/ougirez/welfare-portal/internal/pkg/utils"
)

type fakeFetcher struct {
	calls   atomic.Int32
	catalog *domain.LocationCatalog
	err     error
}

func (f *fakeFetcher) FetchAccessibleLocations(_ context.Context, _ *utils.AuthContext) (*domain.LocationCatalog, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.catalog, nil
}

type gatedFetcher struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	catalog *domain.LocationCatalog
}

func (f *gatedFetcher) FetchAccessibleLocations(ctx context.Context, _ *utils.AuthContext) (*domain.LocationCatalog, error) {
	if f.calls.Add(1) == 1 {
		close(f.started)
	}
	<-f.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.catalog, nil
}

func officerCatalog() *domain.LocationCatalog {
	return &domain.LocationCatalog{
		Districts: []domain.District{{DistrictID: "D1", DistrictName: "Galle"}},
		DSs: []domain.DSDivision{
			{DSID: "A", DSName: "Akmeemana", DistrictID: "D1"},
			{DSID: "B", DSName: "Baddegama", DistrictID: "D1"},
		},
		Zones: []domain.Zone{
			{ZoneID: "Z1", DSID: "A"},
			{ZoneID: "Z2", DSID: "B"},
		},
	}
}

func TestDefaultScope(t *testing.T) {
	f := &fakeFetcher{catalog: officerCatalog()}
	svc := NewLocationsService(f, time.Minute)

	view, err := svc.DefaultScope(context.Background(), &utils.AuthContext{Token: "t1"})
	require.NoError(t, err)

	assert.Equal(t, domain.FilterState{"district_id": "D1"}, view.Filters)
	assert.True(t, view.Changed)
	assert.Len(t, view.Options.DSs, 2)
}

func TestUpdateScopeNarrowsAndReportsChange(t *testing.T) {
	f := &fakeFetcher{catalog: officerCatalog()}
	svc := NewLocationsService(f, time.Minute)
	auth := &utils.AuthContext{Token: "t1"}

	view, err := svc.UpdateScope(context.Background(), auth,
		domain.FilterState{"district_id": "D1", "zone_id": "Z2"},
		scope.Update{Key: "ds_id", Value: "A"})
	require.NoError(t, err)

	assert.Equal(t, domain.FilterState{"district_id": "D1", "ds_id": "A"}, view.Filters)
	assert.True(t, view.Changed)
	assert.Equal(t, []domain.Zone{{ZoneID: "Z1", DSID: "A"}}, view.Options.Zones)

	view, err = svc.UpdateScope(context.Background(), auth, view.Filters,
		scope.Update{Key: "mainProgram", Value: "XX"})
	require.NoError(t, err)
	assert.False(t, view.Changed)

	assert.EqualValues(t, 1, f.calls.Load(), "catalog is cached per token")
}

func TestCatalogRefetchedForNewTokenAndAfterTTL(t *testing.T) {
	f := &fakeFetcher{catalog: officerCatalog()}
	svc := NewLocationsService(f, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	ctx := context.Background()
	_, err := svc.Catalog(ctx, &utils.AuthContext{Token: "t1"})
	require.NoError(t, err)
	_, err = svc.Catalog(ctx, &utils.AuthContext{Token: "t2"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, f.calls.Load())

	now = now.Add(2 * time.Minute)
	_, err = svc.Catalog(ctx, &utils.AuthContext{Token: "t1"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, f.calls.Load())

	svc.Forget("t1")
	_, err = svc.Catalog(ctx, &utils.AuthContext{Token: "t1"})
	require.NoError(t, err)
	assert.EqualValues(t, 4, f.calls.Load())
}

func TestCatalogErrorIsWrapped(t *testing.T) {
	f := &fakeFetcher{err: &constants.UpstreamError{Status: 403, Message: "forbidden"}}
	svc := NewLocationsService(f, 0)

	_, err := svc.DefaultScope(context.Background(), &utils.AuthContext{Token: "t1"})

	var ue *constants.UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, 403, constants.StatusOf(err))
}

func TestCatalogSurvivesFirstCallerCancel(t *testing.T) {
	f := &gatedFetcher{
		started: make(chan struct{}),
		release: make(chan struct{}),
		catalog: officerCatalog(),
	}
	svc := NewLocationsService(f, time.Minute)
	auth := &utils.AuthContext{Token: "shared"}

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Catalog(firstCtx, auth)
		firstErr <- err
	}()
	<-f.started

	type result struct {
		catalog *domain.LocationCatalog
		err     error
	}
	second := make(chan result, 1)
	go func() {
		c, err := svc.Catalog(context.Background(), auth)
		second <- result{c, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(f.release)
	res := <-second
	require.NoError(t, res.err)
	assert.Equal(t, officerCatalog(), res.catalog)
	assert.Equal(t, int32(1), f.calls.Load())
}
