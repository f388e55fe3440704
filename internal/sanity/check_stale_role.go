package sanity

import (
	"context"
	"fmt"

	id "rosterd/pkg/domain"
)

// staleRole is the inverse of the management checks: people carrying the
// year-round management role via a manual person_role grant with no
// qualifying position or team membership left to back it. Repair revokes.
type staleRole struct{}

func (staleRole) Name() string         { return "login-management-year-round" }
func (staleRole) Repairable() bool     { return true }
func (staleRole) Requires() OptionKind { return OptionsNone }

func (staleRole) Issues(ctx context.Context, env Env) ([]Issue, error) {
	role := env.Catalog.EventManagementYearRound
	people, err := env.Store.StaleRoleHolders(ctx, role.ID)
	if err != nil {
		return nil, fmt.Errorf("scan stale %s grants: %w", role.Title, err)
	}

	issues := make([]Issue, 0, len(people))
	for _, p := range people {
		issue := personIssue(p)
		issue.Role = &RoleRef{ID: role.ID, Title: role.Title}
		issues = append(issues, issue)
	}
	sortIssuesByCallsign(issues)
	return issues, nil
}

func (staleRole) Repair(ctx context.Context, env Env, ids []id.PersonID, _ Options) ([]RepairResult, error) {
	role := env.Catalog.EventManagementYearRound
	results := make([]RepairResult, 0, len(ids))
	for _, pid := range ids {
		hasRole, err := env.Store.HasRole(ctx, pid, role.ID)
		if err != nil {
			return results, fmt.Errorf("person %d: role lookup: %w", pid, err)
		}
		if !hasRole {
			results = append(results, failed(pid, fmt.Sprintf("does not hold %s", role.Title)))
			continue
		}
		qualifies, err := env.Store.QualifiesForRole(ctx, pid, role.ID)
		if err != nil {
			return results, fmt.Errorf("person %d: qualification: %w", pid, err)
		}
		if qualifies {
			results = append(results, failed(pid, fmt.Sprintf("grant of %s is backed by a position or team", role.Title)))
			continue
		}
		if err := env.Store.WithinTx(ctx, func(ctx context.Context) error {
			return env.Store.RevokeRole(ctx, pid, role.ID)
		}); err != nil {
			return results, fmt.Errorf("person %d: revoke role: %w", pid, err)
		}
		results = append(results, repaired(pid, "role revoked: "+role.Title))
	}
	return results, nil
}
