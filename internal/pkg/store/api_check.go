package store

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/ougirez/welfare-portal/internal/domain"
	"github.com/ougirez/welfare-portal/internal/pkg/logger"
	"github.com/ougirez/welfare-portal/internal/pkg/store/xpgx"
)

const schemaAPIChecks = `
create table if not exists api_checks (
	id               bigserial primary key,
	request_id       text        not null default '',
	user_id          text        not null default '',
	method           text        not null,
	url              text        not null,
	status_code      int         not null,
	success          boolean     not null,
	response_time_ms bigint      not null,
	error            text        not null default '',
	created_at       timestamptz not null default now()
);
create index if not exists api_checks_user_created_idx on api_checks (user_id, created_at desc);`

const defaultListLimit = 50

var apiCheckColumns = []string{
	"id", "request_id", "user_id", "method", "url", "status_code",
	"success", "response_time_ms", "error", "created_at",
}

type ListAPIChecksOpts struct {
	UserID *string
	Method *string
	Limit  uint64
}

func (s *store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Execx(ctx, sq.Expr(schemaAPIChecks)); err != nil {
		return fmt.Errorf("create %s: %w", tableAPIChecks, err)
	}
	return nil
}

func (s *store) InsertAPICheck(ctx context.Context, check *domain.APICheck) (*domain.APICheck, error) {
	query := builder().Insert(tableAPIChecks).
		Columns(apiCheckColumns[1:9]...).
		Values(check.RequestID, check.UserID, check.Method, check.URL, check.StatusCode,
			check.Success, check.ResponseTimeMs, check.Error).
		Suffix("RETURNING " + strings.Join(apiCheckColumns, ", "))

	inserted, err := xpgx.Get[domain.APICheck](ctx, s.pool, query)
	if err != nil {
		logger.Errorf(ctx, "insert api check: %s", err.Error())
		return nil, wrapErr(err)
	}

	return inserted, nil
}

func (s *store) ListAPIChecks(ctx context.Context, opts ListAPIChecksOpts) ([]*domain.APICheck, error) {
	selected, err := xpgx.Select[domain.APICheck](ctx, s.pool, listAPIChecksQuery(opts))
	if err != nil {
		logger.Error(ctx, err.Error())
		return nil, wrapErr(err)
	}

	return selected, nil
}

func listAPIChecksQuery(opts ListAPIChecksOpts) sq.SelectBuilder {
	limit := opts.Limit
	if limit == 0 || limit > 500 {
		limit = defaultListLimit
	}

	query := builder().Select(apiCheckColumns...).
		From(tableAPIChecks).
		OrderBy("created_at desc, id desc").
		Limit(limit)

	if opts.UserID != nil {
		query = query.Where(sq.Eq{"user_id": *opts.UserID})
	}
	if opts.Method != nil {
		query = query.Where(sq.Eq{"method": *opts.Method})
	}

	return query
}
