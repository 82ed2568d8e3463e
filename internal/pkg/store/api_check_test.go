package store

import (
	"context"
	"fmt"
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ougirez/welfare-portal/internal/pkg/constants"
	"github.com/ougirez/welfare-portal/internal/pkg/store/xpgx"
)

func TestListAPIChecksQuery(t *testing.T) {
	user, method := "17", "POST"

	sql, args, err := listAPIChecksQuery(ListAPIChecksOpts{UserID: &user, Method: &method, Limit: 10}).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT id, request_id, user_id, method, url, status_code, success, response_time_ms, error, created_at "+
			"FROM api_checks WHERE user_id = $1 AND method = $2 ORDER BY created_at desc, id desc LIMIT 10",
		sql)
	assert.Equal(t, []interface{}{"17", "POST"}, args)
}

func TestListAPIChecksQueryClampsLimit(t *testing.T) {
	sql, args, err := listAPIChecksQuery(ListAPIChecksOpts{Limit: 10_000}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "LIMIT 50")
	assert.Empty(t, args)
}

func TestWrapErr(t *testing.T) {
	assert.ErrorIs(t, wrapErr(fmt.Errorf("get: %w", pgx.ErrNoRows)), constants.ErrDBNotFound)

	other := fmt.Errorf("boom")
	assert.Equal(t, other, wrapErr(other))
}

type recordingPool struct {
	execs []string
}

func (p *recordingPool) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	p.execs = append(p.execs, sql)
	return pgconn.CommandTag{}, nil
}

func (p *recordingPool) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, fmt.Errorf("unexpected query")
}

func (p *recordingPool) Execx(ctx context.Context, query sq.Sqlizer) (pgconn.CommandTag, error) {
	return xpgx.Execx(ctx, p, query)
}

func (p *recordingPool) Ping(context.Context) error { return nil }

func (p *recordingPool) Close() {}

func TestEnsureSchema(t *testing.T) {
	pool := &recordingPool{}

	require.NoError(t, NewStore(pool).EnsureSchema(context.Background()))

	require.Len(t, pool.execs, 1)
	assert.Contains(t, pool.execs[0], "create table if not exists api_checks")
	assert.Contains(t, pool.execs[0], "api_checks_user_created_idx")
}
