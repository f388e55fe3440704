package sanity

import (
	"context"
	"fmt"

	"rosterd/internal/roster/models"
	id "rosterd/pkg/domain"
)

// missingPositions runs two independent eligibility passes - all_rangers
// positions for active-class statuses, new_user_eligible positions for
// onboarding-class statuses - and merges the gaps per person.
type missingPositions struct{}

func (missingPositions) Name() string         { return "missing-positions" }
func (missingPositions) Repairable() bool     { return true }
func (missingPositions) Requires() OptionKind { return OptionsNone }

func (missingPositions) Issues(ctx context.Context, env Env) ([]Issue, error) {
	allRangers, err := env.Store.EligiblePeopleMissingPositions(ctx, id.AllRangersStatuses, FlagAllRangers)
	if err != nil {
		return nil, fmt.Errorf("scan missing all-rangers positions: %w", err)
	}
	newUser, err := env.Store.EligiblePeopleMissingPositions(ctx, id.NewUserStatuses, FlagNewUserEligible)
	if err != nil {
		return nil, fmt.Errorf("scan missing new-user positions: %w", err)
	}

	merged := make(map[id.PersonID]*PersonPositions)
	order := make([]id.PersonID, 0, len(allRangers)+len(newUser))
	for _, rows := range [][]PersonPositions{allRangers, newUser} {
		for _, row := range rows {
			existing, ok := merged[row.Person.ID]
			if !ok {
				copied := row
				merged[row.Person.ID] = &copied
				order = append(order, row.Person.ID)
				continue
			}
			seen := positionIDSet(existing.Positions)
			for _, p := range row.Positions {
				if !seen[p.ID] {
					existing.Positions = append(existing.Positions, p)
				}
			}
		}
	}

	issues := make([]Issue, 0, len(order))
	for _, pid := range order {
		row := merged[pid]
		sortPositionsByTitle(row.Positions)
		issue := personIssue(row.Person)
		issue.Positions = positionRefs(row.Positions)
		issues = append(issues, issue)
	}
	sortIssuesByCallsign(issues)
	return issues, nil
}

func (missingPositions) Repair(ctx context.Context, env Env, ids []id.PersonID, _ Options) ([]RepairResult, error) {
	allRangers, err := env.Store.PositionsByFlag(ctx, FlagAllRangers)
	if err != nil {
		return nil, fmt.Errorf("load all-rangers set: %w", err)
	}
	newUser, err := env.Store.PositionsByFlag(ctx, FlagNewUserEligible)
	if err != nil {
		return nil, fmt.Errorf("load new-user set: %w", err)
	}

	results := make([]RepairResult, 0, len(ids))
	for _, pid := range ids {
		person, err := env.Store.PersonByID(ctx, pid)
		if err != nil {
			return results, fmt.Errorf("person %d: %w", pid, err)
		}

		var entitled []models.Position
		if statusIn(person.Status, id.AllRangersStatuses) {
			entitled = append(entitled, allRangers...)
		}
		if statusIn(person.Status, id.NewUserStatuses) {
			entitled = append(entitled, newUser...)
		}
		if len(entitled) == 0 {
			results = append(results, failed(pid, fmt.Sprintf("status %q is not eligible for default positions", person.Status)))
			continue
		}

		held, err := env.Store.PositionsHeld(ctx, pid)
		if err != nil {
			return results, fmt.Errorf("person %d: positions held: %w", pid, err)
		}
		heldIDs := positionIDSet(held)

		var missing []models.Position
		seen := map[id.PositionID]bool{}
		for _, p := range entitled {
			if !heldIDs[p.ID] && !seen[p.ID] {
				missing = append(missing, p)
				seen[p.ID] = true
			}
		}
		if len(missing) == 0 {
			results = append(results, failed(pid, "no positions missing"))
			continue
		}
		sortPositionsByTitle(missing)

		if err := env.Store.WithinTx(ctx, func(ctx context.Context) error {
			return env.Store.GrantPositions(ctx, pid, positionIDs(missing))
		}); err != nil {
			return results, fmt.Errorf("person %d: grant positions: %w", pid, err)
		}

		messages := make([]string, 0, len(missing))
		for _, p := range missing {
			messages = append(messages, "position added: "+p.Title)
		}
		results = append(results, repaired(pid, messages...))
	}
	return results, nil
}

func statusIn(status id.PersonStatus, set []id.PersonStatus) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}
