package sanity

import (
	"context"
	"fmt"

	"rosterd/internal/roster/models"
	id "rosterd/pkg/domain"
)

// managementVariant selects the role pair a management check operates on.
// The qualifying position set is the position_role table itself, so these
// checks stay exact inverses of the stale-role check.
type managementVariant int

const (
	checkManagement managementVariant = iota
	checkManagementOnPlaya
	checkManagementYearRound
)

// managementCheck finds people holding a position that grants a management
// role without actually holding the role. People holding the broader ignore
// role are excluded - they already have at least that capability.
type managementCheck struct {
	variant managementVariant
}

func newManagementCheck(variant managementVariant) managementCheck {
	return managementCheck{variant: variant}
}

func (c managementCheck) Name() string {
	switch c.variant {
	case checkManagementOnPlaya:
		return "management-onplaya"
	case checkManagementYearRound:
		return "management-year-round"
	default:
		return "management"
	}
}

func (c managementCheck) Repairable() bool     { return true }
func (c managementCheck) Requires() OptionKind { return OptionsNone }

func (c managementCheck) roles(env Env) (role, ignore models.Role) {
	switch c.variant {
	case checkManagementOnPlaya:
		return env.Catalog.EventManagementOnPlaya, env.Catalog.ManagementMode
	case checkManagementYearRound:
		return env.Catalog.EventManagementYearRound, env.Catalog.ManagementMode
	default:
		return env.Catalog.ManagementMode, env.Catalog.TechTeam
	}
}

func (c managementCheck) Issues(ctx context.Context, env Env) ([]Issue, error) {
	role, ignore := c.roles(env)
	rows, err := env.Store.QualifiedMissingRole(ctx, role.ID, ignore.ID)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", c.Name(), err)
	}

	issues := make([]Issue, 0, len(rows))
	for _, row := range rows {
		sortPositionsByTitle(row.Positions)
		issue := personIssue(row.Person)
		issue.Positions = positionRefs(row.Positions)
		issue.Role = &RoleRef{ID: role.ID, Title: role.Title}
		issues = append(issues, issue)
	}
	sortIssuesByCallsign(issues)
	return issues, nil
}

func (c managementCheck) Repair(ctx context.Context, env Env, ids []id.PersonID, _ Options) ([]RepairResult, error) {
	role, _ := c.roles(env)
	results := make([]RepairResult, 0, len(ids))
	for _, pid := range ids {
		qualifies, err := env.Store.QualifiesForRole(ctx, pid, role.ID)
		if err != nil {
			return results, fmt.Errorf("person %d: qualification: %w", pid, err)
		}
		if !qualifies {
			results = append(results, failed(pid, fmt.Sprintf("holds no position qualifying for %s", role.Title)))
			continue
		}
		hasRole, err := env.Store.HasRole(ctx, pid, role.ID)
		if err != nil {
			return results, fmt.Errorf("person %d: role lookup: %w", pid, err)
		}
		if hasRole {
			results = append(results, failed(pid, fmt.Sprintf("already holds %s", role.Title)))
			continue
		}
		if err := env.Store.WithinTx(ctx, func(ctx context.Context) error {
			return env.Store.GrantRole(ctx, pid, role.ID)
		}); err != nil {
			return results, fmt.Errorf("person %d: grant role: %w", pid, err)
		}
		results = append(results, repaired(pid, "role granted: "+role.Title))
	}
	return results, nil
}
