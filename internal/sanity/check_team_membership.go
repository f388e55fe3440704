package sanity

import (
	"context"
	"fmt"

	id "rosterd/pkg/domain"

	derrors "rosterd/pkg/domain-errors"
)

// teamMembership finds people holding an all_members team position without
// the membership that position implies. Which team(s) to join can be
// ambiguous when a person holds positions from several teams, so repair
// requires a caller-supplied person-to-teams map and never guesses.
type teamMembership struct{}

func (teamMembership) Name() string         { return "team-membership" }
func (teamMembership) Repairable() bool     { return true }
func (teamMembership) Requires() OptionKind { return OptionsPersonTeams }

func (teamMembership) Issues(ctx context.Context, env Env) ([]Issue, error) {
	gaps, err := env.Store.AllMembersHoldersWithoutMembership(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan team membership: %w", err)
	}

	// One issue per person; a person can be missing several teams.
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

func (teamMembership) Repair(ctx context.Context, env Env, ids []id.PersonID, opts Options) ([]RepairResult, error) {
	// Every referenced team must exist before anything mutates.
	teams := make(map[id.TeamID]string)
	for _, pid := range ids {
		for _, tid := range opts.PersonTeams[pid] {
			if _, ok := teams[tid]; ok {
				continue
			}
			team, err := env.Store.TeamByID(ctx, tid)
			if err != nil {
				return nil, derrors.Wrap(err, derrors.CodeUnprocessable, "team %d not found", tid)
			}
			teams[tid] = team.Title
		}
	}

	results := make([]RepairResult, 0, len(ids))
	for _, pid := range ids {
		assigned := opts.PersonTeams[pid]
		if err := env.Store.WithinTx(ctx, func(ctx context.Context) error {
			return env.Store.AddTeamMemberships(ctx, pid, assigned)
		}); err != nil {
			return results, fmt.Errorf("person %d: add memberships: %w", pid, err)
		}
		messages := make([]string, 0, len(assigned))
		for _, tid := range assigned {
			messages = append(messages, "added to team "+teams[tid])
		}
		results = append(results, repaired(pid, messages...))
	}
	return results, nil
}
