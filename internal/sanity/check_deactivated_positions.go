package sanity

import (
	"context"
	"fmt"

	id "rosterd/pkg/domain"

	derrors "rosterd/pkg/domain-errors"
)

// deactivatedPositions reports holders of positions that have been turned
// off. Report-only: whether a stale grant should be stripped or the position
// reactivated is a product call, so the engine rejects repair requests.
type deactivatedPositions struct{}

func (deactivatedPositions) Name() string         { return "deactivated-positions" }
func (deactivatedPositions) Repairable() bool     { return false }
func (deactivatedPositions) Requires() OptionKind { return OptionsNone }

func (deactivatedPositions) Issues(ctx context.Context, env Env) ([]Issue, error) {
	rows, err := env.Store.InactivePositionHolders(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan deactivated positions: %w", err)
	}

	issues := make([]Issue, 0, len(rows))
	for _, row := range rows {
		sortPositionsByTitle(row.Positions)
		issue := personIssue(row.Person)
		issue.Positions = positionRefs(row.Positions)
		issues = append(issues, issue)
	}
	sortIssuesByCallsign(issues)
	return issues, nil
}

func (deactivatedPositions) Repair(context.Context, Env, []id.PersonID, Options) ([]RepairResult, error) {
	return nil, derrors.New(derrors.CodeUnprocessable, "check %q is report-only", "deactivated-positions")
}
