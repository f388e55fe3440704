package sanity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"rosterd/internal/audit"
	"rosterd/internal/platform/metrics"
	id "rosterd/pkg/domain"
	derrors "rosterd/pkg/domain-errors"
	"rosterd/pkg/requestcontext"
)

// Auditor records repair mutations. Failures are surfaced as warnings and
// never block a repair.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

// IssueCache caches issue scans. Scans are advisory, so short staleness is
// acceptable; repairs invalidate eagerly anyway.
type IssueCache interface {
	Get(ctx context.Context, check string) ([]Issue, bool, error)
	Set(ctx context.Context, check string, issues []Issue) error
	Invalidate(ctx context.Context, check string) error
}

// Engine orchestrates check dispatch: it validates repair options, invokes
// the check, mirrors results to the audit sink, and keeps cache and metrics
// in step. It interprets no check-specific business logic itself.
type Engine struct {
	registry *Registry
	store    Store
	catalog  *Catalog
	auditor  Auditor
	cache    IssueCache
	metrics  *metrics.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
}

type EngineOption func(*Engine)

// WithCache enables the issue-scan cache.
func WithCache(cache IssueCache) EngineOption {
	return func(e *Engine) { e.cache = cache }
}

// WithMetrics enables prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

func NewEngine(registry *Registry, store Store, catalog *Catalog, auditor Auditor, logger *slog.Logger, opts ...EngineOption) (*Engine, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if auditor == nil {
		return nil, fmt.Errorf("auditor is required")
	}

	e := &Engine{
		registry: registry,
		store:    store,
		catalog:  catalog,
		auditor:  auditor,
		logger:   logger,
		tracer:   otel.Tracer("rosterd/sanity"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// CheckInfo describes a registered check for the listing endpoint.
type CheckInfo struct {
	Name       string `json:"name"`
	Repairable bool   `json:"repairable"`
}

// ListChecks enumerates all registered checks, sorted by name.
func (e *Engine) ListChecks() []CheckInfo {
	checks := e.registry.List()
	infos := make([]CheckInfo, 0, len(checks))
	for _, c := range checks {
		infos = append(infos, CheckInfo{Name: c.Name(), Repairable: c.Repairable()})
	}
	return infos
}

// env resolves the per-invocation environment. The year comes from the
// request-scoped clock exactly once, so every query in this invocation
// agrees on "this year" even across a year boundary.
func (e *Engine) env(ctx context.Context) Env {
	return Env{
		Store:   e.store,
		Catalog: e.catalog,
		Year:    requestcontext.Now(ctx).Year(),
	}
}

// Issues runs the named check's scan.
func (e *Engine) Issues(ctx context.Context, name string) ([]Issue, error) {
	check, err := e.registry.Lookup(name)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeNotFound, "unknown check %q", name)
	}

	ctx, span := e.tracer.Start(ctx, "sanity.issues",
		trace.WithAttributes(attribute.String("check", name)))
	defer span.End()

	if e.cache != nil {
		if issues, ok, err := e.cache.Get(ctx, name); err != nil {
			e.logger.WarnContext(ctx, "issue cache read failed", "check", name, "error", err)
		} else if ok {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return issues, nil
		}
	}

	start := time.Now()
	issues, err := check.Issues(ctx, e.env(ctx))
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "scan %q failed", name)
	}
	if e.metrics != nil {
		e.metrics.ScanDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		e.metrics.IssuesFound.WithLabelValues(name).Add(float64(len(issues)))
	}

	if e.cache != nil {
		if err := e.cache.Set(ctx, name, issues); err != nil {
			e.logger.WarnContext(ctx, "issue cache write failed", "check", name, "error", err)
		}
	}
	return issues, nil
}

// CheckIssues pairs a check with its scan result for ScanAll.
type CheckIssues struct {
	Check  CheckInfo `json:"check"`
	Issues []Issue   `json:"issues"`
}

// ScanAll runs every check's scan concurrently. Scans are pure reads, so
// they may interleave freely; the bound keeps store load sane.
func (e *Engine) ScanAll(ctx context.Context) ([]CheckIssues, error) {
	checks := e.registry.List()
	results := make([]CheckIssues, len(checks))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, check := range checks {
		g.Go(func() error {
			issues, err := e.Issues(ctx, check.Name())
			if err != nil {
				return err
			}
			results[i] = CheckIssues{
				Check:  CheckInfo{Name: check.Name(), Repairable: check.Repairable()},
				Issues: issues,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Repair runs the named check's repair for the given people. Option shape
// is validated for the whole batch before anything mutates; per-person
// outcomes are mirrored to the audit sink.
func (e *Engine) Repair(ctx context.Context, name string, ids []id.PersonID, opts Options) ([]RepairResult, error) {
	check, err := e.registry.Lookup(name)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeNotFound, "unknown check %q", name)
	}
	if !check.Repairable() {
		return nil, derrors.New(derrors.CodeUnprocessable, "check %q is report-only", name)
	}
	if len(ids) == 0 {
		return nil, derrors.New(derrors.CodeBadRequest, "no person ids supplied")
	}
	if err := validateOptions(check, ids, opts); err != nil {
		return nil, err
	}

	ctx, span := e.tracer.Start(ctx, "sanity.repair",
		trace.WithAttributes(
			attribute.String("check", name),
			attribute.Int("people", len(ids)),
		))
	defer span.End()

	results, repairErr := check.Repair(ctx, e.env(ctx), ids, opts)

	repaired := 0
	for _, r := range results {
		if len(r.Errors) > 0 {
			if e.metrics != nil {
				e.metrics.RepairErrors.WithLabelValues(name).Inc()
			}
			continue
		}
		repaired++
		if e.metrics != nil {
			e.metrics.RepairsApplied.WithLabelValues(name).Inc()
		}
		e.record(ctx, name, r)
	}

	if repaired > 0 && e.cache != nil {
		if err := e.cache.Invalidate(ctx, name); err != nil {
			e.logger.WarnContext(ctx, "issue cache invalidation failed", "check", name, "error", err)
		}
	}

	if repairErr != nil {
		// Completed repairs stand; the caller learns where the batch stopped.
		return results, derrors.Wrap(repairErr, derrors.CodeInternal, "repair %q aborted", name)
	}
	return results, nil
}

// record mirrors one successful per-person repair to the audit sink.
func (e *Engine) record(ctx context.Context, checkName string, result RepairResult) {
	event := audit.Event{
		ActorID:   requestcontext.ActorID(ctx),
		PersonID:  result.PersonID,
		Action:    audit.ActionSanityRepair,
		Reason:    "position sanity checker repair - " + checkName,
		Details:   result.Messages,
		RequestID: requestcontext.RequestID(ctx),
	}
	if err := e.auditor.Emit(ctx, event); err != nil {
		e.logger.WarnContext(ctx, "audit record failed",
			"check", checkName,
			"person_id", result.PersonID,
			"error", err,
		)
	}
}

// validateOptions enforces the option shape a check declares, across the
// whole batch, before any mutation happens.
func validateOptions(check Check, ids []id.PersonID, opts Options) error {
	switch check.Requires() {
	case OptionsNone:
		return nil
	case OptionsTeamID:
		if opts.TeamID == nil {
			return derrors.New(derrors.CodeBadRequest, "check %q requires option team_id", check.Name())
		}
	case OptionsPersonTeams:
		if opts.PersonTeams == nil {
			return derrors.New(derrors.CodeBadRequest, "check %q requires option person_teams", check.Name())
		}
		for _, pid := range ids {
			if len(opts.PersonTeams[pid]) == 0 {
				return derrors.New(derrors.CodeBadRequest, "option person_teams missing entry for person %d", pid)
			}
		}
	case OptionsPersonPositions:
		if opts.PersonPositions == nil {
			return derrors.New(derrors.CodeBadRequest, "check %q requires option person_positions", check.Name())
		}
		for _, pid := range ids {
			if len(opts.PersonPositions[pid]) == 0 {
				return derrors.New(derrors.CodeBadRequest, "option person_positions missing entry for person %d", pid)
			}
		}
	}
	return nil
}
