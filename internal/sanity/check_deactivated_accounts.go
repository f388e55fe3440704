package sanity

import (
	"context"
	"fmt"

	id "rosterd/pkg/domain"
)

// deactivatedAccounts finds people in a terminal status who still hold
// positions. Repair strips every position - destructive and irreversible,
// which is why the terminal status list deliberately excludes retired.
type deactivatedAccounts struct{}

func (deactivatedAccounts) Name() string         { return "deactivated-accounts" }
func (deactivatedAccounts) Repairable() bool     { return true }
func (deactivatedAccounts) Requires() OptionKind { return OptionsNone }

func (deactivatedAccounts) Issues(ctx context.Context, env Env) ([]Issue, error) {
	rows, err := env.Store.PeopleHoldingPositions(ctx, id.DeactivatedStatuses)
	if err != nil {
		return nil, fmt.Errorf("scan deactivated accounts: %w", err)
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

func (deactivatedAccounts) Repair(ctx context.Context, env Env, ids []id.PersonID, _ Options) ([]RepairResult, error) {
	results := make([]RepairResult, 0, len(ids))
	for _, pid := range ids {
		person, err := env.Store.PersonByID(ctx, pid)
		if err != nil {
			return results, fmt.Errorf("person %d: %w", pid, err)
		}
		if !isDeactivated(person.Status) {
			results = append(results, failed(pid, fmt.Sprintf("status %q is not a deactivated status", person.Status)))
			continue
		}
		if err := env.Store.WithinTx(ctx, func(ctx context.Context) error {
			return env.Store.RevokeAllPositions(ctx, pid)
		}); err != nil {
			return results, fmt.Errorf("person %d: revoke positions: %w", pid, err)
		}
		results = append(results, repaired(pid, "Positions revoked"))
	}
	return results, nil
}

func isDeactivated(status id.PersonStatus) bool {
	for _, s := range id.DeactivatedStatuses {
		if s == status {
			return true
		}
	}
	return false
}
