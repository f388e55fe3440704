package sanity

import (
	"context"
	"fmt"

	id "rosterd/pkg/domain"

	derrors "rosterd/pkg/domain-errors"
)

// deactivatedTeams finds inactive teams that still have members. Repair is
// two-step per person: the team's positions first, then the membership, so a
// partial failure never leaves a grant dangling without its membership
// context. Grouped by team rather than callsign.
type deactivatedTeams struct{}

func (deactivatedTeams) Name() string         { return "deactivated-teams" }
func (deactivatedTeams) Repairable() bool     { return true }
func (deactivatedTeams) Requires() OptionKind { return OptionsTeamID }

func (deactivatedTeams) Issues(ctx context.Context, env Env) ([]Issue, error) {
	teams, err := env.Store.InactiveTeamsWithMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan deactivated teams: %w", err)
	}

	var issues []Issue
	for _, tm := range teams {
		members := make([]Issue, 0, len(tm.Members))
		for _, m := range tm.Members {
			issue := personIssue(m)
			issue.Team = &TeamRef{ID: tm.Team.ID, Title: tm.Team.Title}
			members = append(members, issue)
		}
		sortIssuesByCallsign(members)
		issues = append(issues, members...)
	}
	return issues, nil
}

func (deactivatedTeams) Repair(ctx context.Context, env Env, ids []id.PersonID, opts Options) ([]RepairResult, error) {
	team, err := env.Store.TeamByID(ctx, *opts.TeamID)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeUnprocessable, "team %d not found", *opts.TeamID)
	}
	if team.Active {
		return nil, derrors.New(derrors.CodeUnprocessable, "team %q is not deactivated", team.Title)
	}

	results := make([]RepairResult, 0, len(ids))
	for _, pid := range ids {
		held, err := env.Store.PositionsHeld(ctx, pid)
		if err != nil {
			return results, fmt.Errorf("person %d: positions held: %w", pid, err)
		}
		var teamPositions []id.PositionID
		var messages []string
		for _, p := range held {
			if p.TeamID != nil && *p.TeamID == team.ID {
				teamPositions = append(teamPositions, p.ID)
				messages = append(messages, "position removed: "+p.Title)
			}
		}
		messages = append(messages, "removed from team "+team.Title)

		if err := env.Store.WithinTx(ctx, func(ctx context.Context) error {
			if len(teamPositions) > 0 {
				if err := env.Store.RevokePositions(ctx, pid, teamPositions); err != nil {
					return err
				}
			}
			return env.Store.RemoveTeamMembership(ctx, pid, team.ID)
		}); err != nil {
			return results, fmt.Errorf("person %d: remove from team %d: %w", pid, team.ID, err)
		}
		results = append(results, repaired(pid, messages...))
	}
	return results, nil
}
