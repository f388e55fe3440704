package sanity

import (
	"context"
	"fmt"

	"rosterd/internal/roster/models"
	id "rosterd/pkg/domain"
)

// retiredAccounts finds retired people holding anything beyond the new-user
// default set. Repair resets the account to exactly that set: offending
// positions go, missing defaults come back.
type retiredAccounts struct{}

func (retiredAccounts) Name() string         { return "retired-accounts" }
func (retiredAccounts) Repairable() bool     { return true }
func (retiredAccounts) Requires() OptionKind { return OptionsNone }

func (retiredAccounts) Issues(ctx context.Context, env Env) ([]Issue, error) {
	rows, err := env.Store.PeopleHoldingPositions(ctx, []id.PersonStatus{id.StatusRetired})
	if err != nil {
		return nil, fmt.Errorf("scan retired accounts: %w", err)
	}

	var issues []Issue
	for _, row := range rows {
		offending := nonDefaultPositions(row.Positions)
		if len(offending) == 0 {
			continue
		}
		sortPositionsByTitle(offending)
		issue := personIssue(row.Person)
		issue.Positions = positionRefs(offending)
		issues = append(issues, issue)
	}
	sortIssuesByCallsign(issues)
	return issues, nil
}

func (retiredAccounts) Repair(ctx context.Context, env Env, ids []id.PersonID, _ Options) ([]RepairResult, error) {
	defaults, err := env.Store.PositionsByFlag(ctx, FlagNewUserEligible)
	if err != nil {
		return nil, fmt.Errorf("load new-user default set: %w", err)
	}

	results := make([]RepairResult, 0, len(ids))
	for _, pid := range ids {
		person, err := env.Store.PersonByID(ctx, pid)
		if err != nil {
			return results, fmt.Errorf("person %d: %w", pid, err)
		}
		if person.Status != id.StatusRetired {
			results = append(results, failed(pid, fmt.Sprintf("status %q is not retired", person.Status)))
			continue
		}

		held, err := env.Store.PositionsHeld(ctx, pid)
		if err != nil {
			return results, fmt.Errorf("person %d: positions held: %w", pid, err)
		}

		remove := nonDefaultPositions(held)
		heldIDs := positionIDSet(held)
		var add []models.Position
		for _, p := range defaults {
			if !heldIDs[p.ID] {
				add = append(add, p)
			}
		}
		sortPositionsByTitle(remove)
		sortPositionsByTitle(add)

		if err := env.Store.WithinTx(ctx, func(ctx context.Context) error {
			if len(remove) > 0 {
				if err := env.Store.RevokePositions(ctx, pid, positionIDs(remove)); err != nil {
					return err
				}
			}
			if len(add) > 0 {
				return env.Store.GrantPositions(ctx, pid, positionIDs(add))
			}
			return nil
		}); err != nil {
			return results, fmt.Errorf("person %d: reset positions: %w", pid, err)
		}

		messages := make([]string, 0, len(remove)+len(add))
		for _, p := range remove {
			messages = append(messages, "position removed: "+p.Title)
		}
		for _, p := range add {
			messages = append(messages, "position added: "+p.Title)
		}
		if len(messages) == 0 {
			results = append(results, failed(pid, "already holds the new-user default set"))
			continue
		}
		results = append(results, repaired(pid, messages...))
	}
	return results, nil
}

func nonDefaultPositions(positions []models.Position) []models.Position {
	var out []models.Position
	for _, p := range positions {
		if !p.NewUserEligible {
			out = append(out, p)
		}
	}
	return out
}

func positionIDs(positions []models.Position) []id.PositionID {
	ids := make([]id.PositionID, 0, len(positions))
	for _, p := range positions {
		ids = append(ids, p.ID)
	}
	return ids
}
