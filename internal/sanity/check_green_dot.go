package sanity

import (
	"context"
	"fmt"

	"rosterd/internal/roster/models"
	id "rosterd/pkg/domain"
)

// greenDot covers the three co-dependent Green Dot positions: the Dirt and
// Sanctuary variants plus the derived Gerlach Patrol combo. They are held as
// a set or not at all. Repair fills in the missing ones, but never from
// nothing - someone holding no base variant is not a Green Dot and gets a
// per-person error instead of a grant.
type greenDot struct{}

func (greenDot) Name() string         { return "green-dot" }
func (greenDot) Repairable() bool     { return true }
func (greenDot) Requires() OptionKind { return OptionsNone }

func (g greenDot) set(env Env) []models.Position {
	return []models.Position{
		env.Catalog.DirtGreenDot,
		env.Catalog.Sanctuary,
		env.Catalog.GerlachPatrolGreenDot,
	}
}

func (g greenDot) Issues(ctx context.Context, env Env) ([]Issue, error) {
	set := g.set(env)
	rows, err := env.Store.HoldersAmong(ctx, positionIDs(set))
	if err != nil {
		return nil, fmt.Errorf("scan green dot: %w", err)
	}

	var issues []Issue
	for _, row := range rows {
		if len(row.Positions) >= len(set) {
			continue
		}
		held := positionIDSet(row.Positions)
		var missing []models.Position
		for _, p := range set {
			if !held[p.ID] {
				missing = append(missing, p)
			}
		}
		issue := personIssue(row.Person)
		issue.Positions = positionRefs(missing)
		issues = append(issues, issue)
	}
	sortIssuesByCallsign(issues)
	return issues, nil
}

func (g greenDot) Repair(ctx context.Context, env Env, ids []id.PersonID, _ Options) ([]RepairResult, error) {
	set := g.set(env)
	results := make([]RepairResult, 0, len(ids))
	for _, pid := range ids {
		held, err := env.Store.PositionsHeld(ctx, pid)
		if err != nil {
			return results, fmt.Errorf("person %d: positions held: %w", pid, err)
		}
		heldIDs := positionIDSet(held)

		// Partial credit only: at least one base variant must already be held.
		if !heldIDs[env.Catalog.DirtGreenDot.ID] && !heldIDs[env.Catalog.Sanctuary.ID] {
			results = append(results, failed(pid, "not a Green Dot"))
			continue
		}

		var missing []models.Position
		for _, p := range set {
			if !heldIDs[p.ID] {
				missing = append(missing, p)
			}
		}
		if len(missing) == 0 {
			results = append(results, failed(pid, "already holds the full Green Dot set"))
			continue
		}

		if err := env.Store.WithinTx(ctx, func(ctx context.Context) error {
			return env.Store.GrantPositions(ctx, pid, positionIDs(missing))
		}); err != nil {
			return results, fmt.Errorf("person %d: grant green dot positions: %w", pid, err)
		}

		messages := make([]string, 0, len(missing))
		for _, p := range missing {
			messages = append(messages, "added "+p.Title)
		}
		results = append(results, repaired(pid, messages...))
	}
	return results, nil
}
