package reports

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/ougirez/welfare-portal/internal/domain"
	"github.com/ougirez/welfare-portal/internal/pkg/constants"
	"github.com/ougirez/welfare-portal/internal/pkg/logger"
	"github.com/ougirez/welfare-portal/internal/pkg/scope"
	"github.com/ougirez/welfare-portal/internal/pkg/utils"
)

type RowsFetcher interface {
	FetchReport(ctx context.Context, auth *utils.AuthContext, path string, filters domain.FilterState) ([]domain.ReportRow, error)
}

type Service struct {
	api  RowsFetcher
	defs map[domain.ReportKind]Definition
	seq  *sequencer
}

// NewReportsService uses DefaultDefinitions with paths replaced by overrides.
func NewReportsService(api RowsFetcher, overrides map[string]string) *Service {
	defs := DefaultDefinitions()
	for kind, path := range overrides {
		if d, ok := defs[domain.ReportKind(kind)]; ok {
			d.Path = path
			defs[d.Kind] = d
		}
	}
	return &Service{api: api, defs: defs, seq: newSequencer()}
}

func (s *Service) Definition(kind domain.ReportKind) (Definition, error) {
	d, ok := s.defs[kind]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", constants.ErrUnknownReport, kind)
	}
	return d, nil
}

func (s *Service) Definitions() []Definition {
	out := make([]Definition, 0, len(s.defs))
	for _, d := range s.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

// Sanitize keeps the filters a report accepts and replays them through the
// cascade top-down, so invalid enum values are dropped.
func (d Definition) Sanitize(raw domain.FilterState) domain.FilterState {
	allowed := d.allowed()
	state := domain.FilterState{}

	for _, k := range scope.Levels {
		if v, ok := raw[k]; ok {
			state = scope.UpdateFilter(state, k, v)
		}
	}
	for _, k := range raw.Keys() {
		if _, ok := allowed[k]; !ok || scope.IsLevel(k) {
			continue
		}
		state = scope.UpdateFilter(state, k, raw[k])
	}

	return state
}

// Fetch returns the rows of a report view. A newer Fetch for the same
// user, report and viewID cancels this one, which then fails with
// ErrSuperseded.
func (s *Service) Fetch(
	ctx context.Context,
	auth *utils.AuthContext,
	kind domain.ReportKind,
	viewID string,
	filters domain.FilterState,
) ([]domain.ReportRow, error) {
	def, err := s.Definition(kind)
	if err != nil {
		return nil, err
	}

	owner := auth.UserID()
	if owner == "" {
		owner = auth.Token
	}
	view := owner + "|" + string(kind) + "|" + viewID
	fetchCtx, seq := s.seq.begin(ctx, view)

	rows, err := s.api.FetchReport(fetchCtx, auth, def.Path, def.Sanitize(filters))
	if !s.seq.finish(view, seq) {
		logger.Debugf(ctx, "discarding superseded %s report response #%d", kind, seq)
		return nil, constants.ErrSuperseded
	}
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("fetch %s report: %w", kind, err)
	}

	return rows, nil
}

// FetchAll fetches a report for a one-off export, outside view sequencing.
func (s *Service) FetchAll(
	ctx context.Context,
	auth *utils.AuthContext,
	kind domain.ReportKind,
	filters domain.FilterState,
) (Definition, domain.FilterState, []domain.ReportRow, error) {
	def, err := s.Definition(kind)
	if err != nil {
		return Definition{}, nil, nil, err
	}

	applied := def.Sanitize(filters)
	rows, err := s.api.FetchReport(ctx, auth, def.Path, applied)
	if err != nil {
		return Definition{}, nil, nil, fmt.Errorf("fetch %s report: %w", kind, err)
	}
	return def, applied, rows, nil
}
