package grants

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ougirez/welfare-portal/internal/domain"
	"github.com/ougirez/welfare-portal/internal/pkg/constants"
	"github.com/ougirez/welfare-portal/internal/pkg/utils"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingSaver struct {
	inflight atomic.Int32
	peak     atomic.Int32
	hold     time.Duration
	fail     string

	mx    sync.Mutex
	saved []string
}

func (s *countingSaver) SaveGrantUtilization(_ context.Context, _ *utils.AuthContext, r *domain.GrantUtilization) (*domain.GrantUtilization, error) {
	n := s.inflight.Add(1)
	defer s.inflight.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(s.hold)

	if r.HHNumber == s.fail {
		return nil, &constants.UpstreamError{Status: 500, Message: "db down"}
	}

	s.mx.Lock()
	s.saved = append(s.saved, r.HHNumber)
	s.mx.Unlock()

	out := *r
	out.ID = "id-" + r.HHNumber
	return &out, nil
}

func record(hh string) *domain.GrantUtilization {
	return &domain.GrantUtilization{
		HHNumber:        hh,
		BeneficiaryID:   "B-" + hh,
		GrantType:       domain.GrantTypeLivelihood,
		Amount:          decimal.RequireFromString("2500.75"),
		UtilizationDate: "2025-11-03",
	}
}

func TestQueueBoundsConcurrency(t *testing.T) {
	saver := &countingSaver{hold: 20 * time.Millisecond}
	q := NewQueue(saver, Options{Concurrency: 2, BatchDelay: 5 * time.Millisecond, Capacity: 20})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			saved, err := q.Submit(context.Background(), nil, record(string(rune('a'+i))))
			assert.NoError(t, err)
			assert.NotEmpty(t, saved.ID)
		}(i)
	}
	wg.Wait()

	require.NoError(t, q.Close(context.Background()))
	assert.LessOrEqual(t, saver.peak.Load(), int32(2))
	assert.Len(t, saver.saved, 8)
}

func TestQueueReportsSaveErrors(t *testing.T) {
	q := NewQueue(&countingSaver{fail: "bad"}, Options{Concurrency: 1, Capacity: 2})
	defer func() { require.NoError(t, q.Close(context.Background())) }()

	_, err := q.Submit(context.Background(), nil, record("bad"))
	var ue *constants.UpstreamError
	assert.True(t, errors.As(err, &ue))
}

func TestQueueFullAndClosed(t *testing.T) {
	saver := &countingSaver{hold: 150 * time.Millisecond}
	q := NewQueue(saver, Options{Concurrency: 1, Capacity: 1})

	results := make(chan error, 3)
	for _, hh := range []string{"1", "2", "3"} {
		go func(hh string) {
			_, err := q.Submit(context.Background(), nil, record(hh))
			results <- err
		}(hh)
		time.Sleep(20 * time.Millisecond)
	}

	var full int
	for i := 0; i < 3; i++ {
		if errors.Is(<-results, constants.ErrQueueFull) {
			full++
		}
	}
	assert.Equal(t, 1, full)

	require.NoError(t, q.Close(context.Background()))
	_, err := q.Submit(context.Background(), nil, record("4"))
	assert.ErrorIs(t, err, constants.ErrQueueClosed)
}

func TestQueueCloseDrainsPending(t *testing.T) {
	saver := &countingSaver{hold: 10 * time.Millisecond}
	q := NewQueue(saver, Options{Concurrency: 1, BatchDelay: 10 * time.Millisecond, Capacity: 10})

	errs := make(chan error, 4)
	for _, hh := range []string{"1", "2", "3", "4"} {
		go func(hh string) {
			_, err := q.Submit(context.Background(), nil, record(hh))
			errs <- err
		}(hh)
	}
	require.Eventually(t, func() bool { return len(q.jobs) > 0 || saver.inflight.Load() > 0 }, time.Second, time.Millisecond)

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, q.Close(context.Background()))

	for i := 0; i < 4; i++ {
		err := <-errs
		if err != nil {
			assert.ErrorIs(t, err, constants.ErrQueueClosed)
		}
	}
	assert.Equal(t, int32(0), saver.inflight.Load())
}

func TestQueueCloseHonoursContext(t *testing.T) {
	saver := &countingSaver{hold: 200 * time.Millisecond}
	q := NewQueue(saver, Options{Concurrency: 1, Capacity: 1})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = q.Submit(context.Background(), nil, record("slow"))
	}()
	require.Eventually(t, func() bool { return saver.inflight.Load() == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Close(ctx), context.DeadlineExceeded)

	<-done
	require.NoError(t, q.Close(context.Background()))
}

func TestSubmitCancelledWhileQueued(t *testing.T) {
	saver := &countingSaver{hold: 50 * time.Millisecond}
	q := NewQueue(saver, Options{Concurrency: 1, Capacity: 5})

	go func() { _, _ = q.Submit(context.Background(), nil, record("first")) }()
	require.Eventually(t, func() bool { return saver.inflight.Load() == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := q.Submit(ctx, nil, record("second"))
	assert.ErrorIs(t, err, context.Canceled)

	require.NoError(t, q.Close(context.Background()))
	assert.NotContains(t, saver.saved, "second")
}

func TestValidate(t *testing.T) {
	r := record("1")
	assert.NoError(t, Validate(r))

	r.Amount = decimal.Zero
	assert.Error(t, Validate(r))

	r = record("1")
	r.Amount = decimal.RequireFromString("10.505")
	assert.Error(t, Validate(r))

	r = record("1")
	r.UtilizationDate = time.Now().AddDate(0, 0, 3).Format(time.DateOnly)
	var ve *constants.ValidationError
	require.ErrorAs(t, Validate(r), &ve)
	assert.Equal(t, "utilization_date", ve.Field)

	assert.Error(t, Validate(nil))
}

func TestValidateDateUsesLocalDay(t *testing.T) {
	colombo := time.FixedZone("+0530", 5*3600+30*60)
	// 02:00 local is still the previous day in UTC.
	now := time.Date(2026, 10, 14, 2, 0, 0, 0, colombo)

	r := record("1")
	r.UtilizationDate = "2026-10-14"
	assert.NoError(t, validateAt(r, now))

	r.UtilizationDate = "2026-10-13"
	assert.NoError(t, validateAt(r, now))

	r.UtilizationDate = "2026-10-15"
	var ve *constants.ValidationError
	require.ErrorAs(t, validateAt(r, now), &ve)
	assert.Equal(t, "utilization_date", ve.Field)
}
