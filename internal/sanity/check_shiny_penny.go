package sanity

import (
	"context"
	"fmt"

	id "rosterd/pkg/domain"
)

// shinyPenny keeps the Shiny Penny position in step with mentoring results:
// held if and only if the person's most recent mentoring pass year is the
// current year. Detection and repair are both evaluated against Env.Year, so
// a single invocation stays consistent across a year boundary.
type shinyPenny struct{}

func (shinyPenny) Name() string         { return "shiny-penny" }
func (shinyPenny) Repairable() bool     { return true }
func (shinyPenny) Requires() OptionKind { return OptionsNone }

func (s shinyPenny) Issues(ctx context.Context, env Env) ([]Issue, error) {
	holders, err := env.Store.HoldersAmong(ctx, []id.PositionID{env.Catalog.ShinyPenny.ID})
	if err != nil {
		return nil, fmt.Errorf("scan shiny penny holders: %w", err)
	}
	passers, err := env.Store.PeopleWithMentorPassIn(ctx, env.Year)
	if err != nil {
		return nil, fmt.Errorf("scan mentor passes for %d: %w", env.Year, err)
	}

	passerIDs := make(map[id.PersonID]bool, len(passers))
	for _, p := range passers {
		passerIDs[p.ID] = true
	}

	var issues []Issue
	holderIDs := make(map[id.PersonID]bool, len(holders))
	for _, row := range holders {
		holderIDs[row.Person.ID] = true
		if passerIDs[row.Person.ID] {
			continue
		}
		// Holds the position without a current-year pass.
		issue := personIssue(row.Person)
		holds := true
		issue.HoldsIt = &holds
		if year, ok, err := env.Store.LatestMentorPassYear(ctx, row.Person.ID); err != nil {
			return nil, fmt.Errorf("mentor history for person %d: %w", row.Person.ID, err)
		} else if ok {
			y := year
			issue.MentorYear = &y
		}
		issues = append(issues, issue)
	}
	for _, p := range passers {
		if holderIDs[p.ID] {
			continue
		}
		// Passed this year without the position.
		issue := personIssue(p)
		holds := false
		issue.HoldsIt = &holds
		y := env.Year
		issue.MentorYear = &y
		issues = append(issues, issue)
	}
	sortIssuesByCallsign(issues)
	return issues, nil
}

func (s shinyPenny) Repair(ctx context.Context, env Env, ids []id.PersonID, _ Options) ([]RepairResult, error) {
	penny := env.Catalog.ShinyPenny
	results := make([]RepairResult, 0, len(ids))
	for _, pid := range ids {
		held, err := env.Store.PositionsHeld(ctx, pid)
		if err != nil {
			return results, fmt.Errorf("person %d: positions held: %w", pid, err)
		}
		holds := positionIDSet(held)[penny.ID]

		year, hasHistory, err := env.Store.LatestMentorPassYear(ctx, pid)
		if err != nil {
			return results, fmt.Errorf("person %d: mentor history: %w", pid, err)
		}
		if !hasHistory && !holds {
			results = append(results, failed(pid, "no mentor history"))
			continue
		}

		isPenny := hasHistory && year == env.Year
		switch {
		case isPenny && !holds:
			if err := env.Store.WithinTx(ctx, func(ctx context.Context) error {
				return env.Store.GrantPositions(ctx, pid, []id.PositionID{penny.ID})
			}); err != nil {
				return results, fmt.Errorf("person %d: grant shiny penny: %w", pid, err)
			}
			results = append(results, repaired(pid, "is a Shiny Penny, position added"))
		case !isPenny && holds:
			if err := env.Store.WithinTx(ctx, func(ctx context.Context) error {
				return env.Store.RevokePositions(ctx, pid, []id.PositionID{penny.ID})
			}); err != nil {
				return results, fmt.Errorf("person %d: revoke shiny penny: %w", pid, err)
			}
			results = append(results, repaired(pid, "not a Shiny Penny, position removed"))
		default:
			results = append(results, failed(pid, "no mismatch found"))
		}
	}
	return results, nil
}
