package sanity

import (
	"context"
	"fmt"

	"rosterd/internal/roster/models"
	id "rosterd/pkg/domain"

	derrors "rosterd/pkg/domain-errors"
)

// teamPositions finds team members missing an all_members position of their
// team. As with team membership, the caller decides exactly which position
// ids to grant per person.
type teamPositions struct{}

func (teamPositions) Name() string         { return "team-positions" }
func (teamPositions) Repairable() bool     { return true }
func (teamPositions) Requires() OptionKind { return OptionsPersonPositions }

func (teamPositions) Issues(ctx context.Context, env Env) ([]Issue, error) {
	gaps, err := env.Store.MembersMissingAllMembersPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan team positions: %w", err)
	}

	merged := make(map[id.PersonID]*Issue)
	var order []id.PersonID
	for _, gap := range gaps {
		issue, ok := merged[gap.Person.ID]
		if !ok {
			base := personIssue(gap.Person)
			issue = &base
			merged[gap.Person.ID] = issue
			order = append(order, gap.Person.ID)
		}
		issue.Teams = append(issue.Teams, TeamRef{ID: gap.Team.ID, Title: gap.Team.Title})
		sortPositionsByTitle(gap.Positions)
		issue.Positions = append(issue.Positions, positionRefs(gap.Positions)...)
	}

	issues := make([]Issue, 0, len(order))
	for _, pid := range order {
		issues = append(issues, *merged[pid])
	}
	sortIssuesByCallsign(issues)
	return issues, nil
}

func (teamPositions) Repair(ctx context.Context, env Env, ids []id.PersonID, opts Options) ([]RepairResult, error) {
	// Every referenced position must exist before anything mutates.
	positions := make(map[id.PositionID]models.Position)
	for _, pid := range ids {
		for _, posID := range opts.PersonPositions[pid] {
			if _, ok := positions[posID]; ok {
				continue
			}
			pos, err := env.Store.PositionByID(ctx, posID)
			if err != nil {
				return nil, derrors.Wrap(err, derrors.CodeUnprocessable, "position %d not found", posID)
			}
			positions[posID] = *pos
		}
	}

	results := make([]RepairResult, 0, len(ids))
	for _, pid := range ids {
		requested := opts.PersonPositions[pid]

		held, err := env.Store.PositionsHeld(ctx, pid)
		if err != nil {
			return results, fmt.Errorf("person %d: positions held: %w", pid, err)
		}
		heldIDs := positionIDSet(held)

		var grant []id.PositionID
		var granted []models.Position
		for _, posID := range requested {
			if heldIDs[posID] {
				continue
			}
			grant = append(grant, posID)
			granted = append(granted, positions[posID])
		}
		if len(grant) == 0 {
			results = append(results, failed(pid, "already holds the requested positions"))
			continue
		}

		if err := env.Store.WithinTx(ctx, func(ctx context.Context) error {
			return env.Store.GrantPositions(ctx, pid, grant)
		}); err != nil {
			return results, fmt.Errorf("person %d: grant positions: %w", pid, err)
		}

		sortPositionsByTitle(granted)
		messages := make([]string, 0, len(granted))
		for _, p := range granted {
			messages = append(messages, "position added: "+p.Title)
		}
		results = append(results, repaired(pid, messages...))
	}
	return results, nil
}
