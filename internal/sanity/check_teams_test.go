package sanity_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rosterd/internal/roster/models"
	"rosterd/internal/sanity"
	id "rosterd/pkg/domain"
	derrors "rosterd/pkg/domain-errors"
)

func teamPosition(posID id.PositionID, title string, tid id.TeamID, category id.TeamCategory) models.Position {
	return models.Position{
		ID:           posID,
		Title:        title,
		Active:       true,
		TeamID:       &tid,
		TeamCategory: category,
	}
}

func TestDeactivatedTeams(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	check := f.check(t, "deactivated-teams")

	f.store.PutTeam(models.Team{ID: 1, Title: "Sunset", Active: false})
	f.store.PutTeam(models.Team{ID: 2, Title: "Dawn", Active: true})
	f.store.PutPosition(teamPosition(10, "Sunset Lead", 1, id.TeamCategoryOptional))
	f.addPerson(50, "Lingerer", id.StatusActive)
	f.addPerson(51, "Mover", id.StatusActive)
	require.NoError(t, f.store.AddTeamMemberships(ctx, 50, []id.TeamID{1}))
	require.NoError(t, f.store.AddTeamMemberships(ctx, 51, []id.TeamID{2}))
	require.NoError(t, f.store.GrantPositions(ctx, 50, []id.PositionID{10}))

	issues, err := check.Issues(ctx, f.env(2026))
	require.NoError(t, err)
	require.Equal(t, []id.PersonID{50}, issuePersonIDs(issues))
	require.NotNil(t, issues[0].Team)
	assert.Equal(t, "Sunset", issues[0].Team.Title)

	team := id.TeamID(1)
	results, err := check.Repair(ctx, f.env(2026), []id.PersonID{50}, sanity.Options{TeamID: &team})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, []string{"position removed: Sunset Lead", "removed from team Sunset"}, results[0].Messages)

	held, err := f.store.PositionsHeld(ctx, 50)
	require.NoError(t, err)
	assert.Empty(t, held)
	issues, err = check.Issues(ctx, f.env(2026))
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestDeactivatedTeamsRejectsActiveTeam(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	check := f.check(t, "deactivated-teams")

	f.store.PutTeam(models.Team{ID: 2, Title: "Dawn", Active: true})
	f.addPerson(51, "Mover", id.StatusActive)

	team := id.TeamID(2)
	_, err := check.Repair(ctx, f.env(2026), []id.PersonID{51}, sanity.Options{TeamID: &team})
	require.Error(t, err)
	assert.True(t, derrors.Is(err, derrors.CodeUnprocessable))

	missing := id.TeamID(99)
	_, err = check.Repair(ctx, f.env(2026), []id.PersonID{51}, sanity.Options{TeamID: &missing})
	require.Error(t, err)
	assert.True(t, derrors.Is(err, derrors.CodeUnprocessable))
}

func TestTeamMembership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	check := f.check(t, "team-membership")

	f.store.PutTeam(models.Team{ID: 1, Title: "Khaki", Active: true})
	f.store.PutPosition(teamPosition(10, "Khaki Shift Lead", 1, id.TeamCategoryAllMembers))
	f.store.PutPosition(teamPosition(11, "Khaki Mentor", 1, id.TeamCategoryOptional))
	f.addPerson(60, "Outsider", id.StatusActive)
	f.addPerson(61, "Insider", id.StatusActive)
	require.NoError(t, f.store.GrantPositions(ctx, 60, []id.PositionID{10}))
	require.NoError(t, f.store.GrantPositions(ctx, 61, []id.PositionID{10}))
	require.NoError(t, f.store.AddTeamMemberships(ctx, 61, []id.TeamID{1}))

	issues, err := check.Issues(ctx, f.env(2026))
	require.NoError(t, err)
	// Optional positions never imply membership; only the all_members
	// holder without a membership row is flagged.
	require.Equal(t, []id.PersonID{60}, issuePersonIDs(issues))
	require.Len(t, issues[0].Teams, 1)
	assert.Equal(t, "Khaki", issues[0].Teams[0].Title)

	results, err := check.Repair(ctx, f.env(2026), []id.PersonID{60}, sanity.Options{
		PersonTeams: map[id.PersonID][]id.TeamID{60: {1}},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, []string{"added to team Khaki"}, results[0].Messages)

	issues, err = check.Issues(ctx, f.env(2026))
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestTeamMembershipUnknownTeamAbortsBeforeMutating(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	check := f.check(t, "team-membership")

	f.store.PutTeam(models.Team{ID: 1, Title: "Khaki", Active: true})
	f.addPerson(60, "Outsider", id.StatusActive)
	f.addPerson(62, "Second", id.StatusActive)

	_, err := check.Repair(ctx, f.env(2026), []id.PersonID{60, 62}, sanity.Options{
		PersonTeams: map[id.PersonID][]id.TeamID{60: {1}, 62: {99}},
	})
	require.Error(t, err)
	assert.True(t, derrors.Is(err, derrors.CodeUnprocessable))

	// The valid first entry must not have been applied.
	teams, err := f.store.TeamsFor(ctx, 60)
	require.NoError(t, err)
	assert.Empty(t, teams)
}

func TestTeamPositions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	check := f.check(t, "team-positions")

	f.store.PutTeam(models.Team{ID: 1, Title: "Khaki", Active: true})
	f.store.PutPosition(teamPosition(10, "Khaki Shift Lead", 1, id.TeamCategoryAllMembers))
	f.addPerson(70, "Joiner", id.StatusActive)
	require.NoError(t, f.store.AddTeamMemberships(ctx, 70, []id.TeamID{1}))

	issues, err := check.Issues(ctx, f.env(2026))
	require.NoError(t, err)
	require.Equal(t, []id.PersonID{70}, issuePersonIDs(issues))
	require.Len(t, issues[0].Positions, 1)
	assert.Equal(t, "Khaki Shift Lead", issues[0].Positions[0].Title)

	results, err := check.Repair(ctx, f.env(2026), []id.PersonID{70}, sanity.Options{
		PersonPositions: map[id.PersonID][]id.PositionID{70: {10}},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, []string{"position added: Khaki Shift Lead"}, results[0].Messages)

	// Re-running for the same person reports the no-op per person.
	results, err = check.Repair(ctx, f.env(2026), []id.PersonID{70}, sanity.Options{
		PersonPositions: map[id.PersonID][]id.PositionID{70: {10}},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, []string{"already holds the requested positions"}, results[0].Errors)
}

func TestTeamPositionsUnknownPosition(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	check := f.check(t, "team-positions")

	f.addPerson(70, "Joiner", id.StatusActive)
	_, err := check.Repair(ctx, f.env(2026), []id.PersonID{70}, sanity.Options{
		PersonPositions: map[id.PersonID][]id.PositionID{70: {999}},
	})
	require.Error(t, err)
	assert.True(t, derrors.Is(err, derrors.CodeUnprocessable))
}
