package sanity_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rosterd/internal/roster/models"
	"rosterd/internal/sanity"
	id "rosterd/pkg/domain"
)

func TestManagementGrantsMissingRole(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	check := f.check(t, "management")

	f.store.PutPosition(models.Position{ID: 10, Title: "Shift Command", Active: true})
	f.store.LinkPositionRole(10, roleManagement)
	f.addPerson(100, "Commander", id.StatusActive)
	f.addPerson(101, "Granted", id.StatusActive)
	require.NoError(t, f.store.GrantPositions(ctx, 100, []id.PositionID{10}))
	require.NoError(t, f.store.GrantPositions(ctx, 101, []id.PositionID{10}))
	require.NoError(t, f.store.GrantRole(ctx, 101, roleManagement))

	issues, err := check.Issues(ctx, f.env(2026))
	require.NoError(t, err)
	require.Equal(t, []id.PersonID{100}, issuePersonIDs(issues))
	require.NotNil(t, issues[0].Role)
	assert.Equal(t, sanity.RoleManagementMode, issues[0].Role.Title)
	require.Len(t, issues[0].Positions, 1)
	assert.Equal(t, "Shift Command", issues[0].Positions[0].Title)

	results, err := check.Repair(ctx, f.env(2026), []id.PersonID{100}, sanity.Options{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, []string{"role granted: " + sanity.RoleManagementMode}, results[0].Messages)

	has, err := f.store.HasRole(ctx, 100, roleManagement)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestManagementIgnoresTechTeamHolders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	check := f.check(t, "management")

	f.store.PutPosition(models.Position{ID: 10, Title: "Shift Command", Active: true})
	f.store.LinkPositionRole(10, roleManagement)
	f.addPerson(102, "Techie", id.StatusActive)
	require.NoError(t, f.store.GrantPositions(ctx, 102, []id.PositionID{10}))
	require.NoError(t, f.store.GrantRole(ctx, 102, roleTechTeam))

	issues, err := check.Issues(ctx, f.env(2026))
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestManagementRepairRevalidates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	check := f.check(t, "management-year-round")

	f.store.PutPosition(models.Position{ID: 11, Title: "Logistics Lead", Active: true})
	f.store.LinkPositionRole(11, roleEMYearRound)
	f.addPerson(103, "Unqualified", id.StatusActive)
	f.addPerson(104, "Qualified", id.StatusActive)
	require.NoError(t, f.store.GrantPositions(ctx, 104, []id.PositionID{11}))
	require.NoError(t, f.store.GrantRole(ctx, 104, roleEMYearRound))

	results, err := check.Repair(ctx, f.env(2026), []id.PersonID{103, 104}, sanity.Options{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Contains(t, results[0].Errors[0], "no position qualifying")
	assert.Contains(t, results[1].Errors[0], "already holds")
}

func TestStaleRoleRevokesUnbackedGrant(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	check := f.check(t, "login-management-year-round")

	f.store.PutPosition(models.Position{ID: 11, Title: "Logistics Lead", Active: true})
	f.store.LinkPositionRole(11, roleEMYearRound)
	f.store.PutTeam(models.Team{ID: 1, Title: "Ops", Active: true})
	f.store.LinkTeamRole(1, roleEMYearRound)

	f.addPerson(110, "Stale", id.StatusActive)
	require.NoError(t, f.store.GrantRole(ctx, 110, roleEMYearRound))
	f.addPerson(111, "ByPosition", id.StatusActive)
	require.NoError(t, f.store.GrantPositions(ctx, 111, []id.PositionID{11}))
	require.NoError(t, f.store.GrantRole(ctx, 111, roleEMYearRound))
	f.addPerson(112, "ByTeam", id.StatusActive)
	require.NoError(t, f.store.AddTeamMemberships(ctx, 112, []id.TeamID{1}))
	require.NoError(t, f.store.GrantRole(ctx, 112, roleEMYearRound))

	issues, err := check.Issues(ctx, f.env(2026))
	require.NoError(t, err)
	// Position- and team-backed grants are fine; only the bare grant shows.
	require.Equal(t, []id.PersonID{110}, issuePersonIDs(issues))

	results, err := check.Repair(ctx, f.env(2026), []id.PersonID{110, 111}, sanity.Options{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, []string{"role revoked: " + sanity.RoleEventManagementYearRound}, results[0].Messages)
	assert.Contains(t, results[1].Errors[0], "backed by a position or team")

	has, err := f.store.HasRole(ctx, 110, roleEMYearRound)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestManagementAndStaleRoleAreInverses(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	grant := f.check(t, "management-year-round")
	revoke := f.check(t, "login-management-year-round")

	f.store.PutPosition(models.Position{ID: 11, Title: "Logistics Lead", Active: true})
	f.store.LinkPositionRole(11, roleEMYearRound)
	f.addPerson(113, "Flipper", id.StatusActive)
	require.NoError(t, f.store.GrantPositions(ctx, 113, []id.PositionID{11}))

	// Missing role: the grant check flags, the revoke check does not.
	grantIssues, err := grant.Issues(ctx, f.env(2026))
	require.NoError(t, err)
	assert.Equal(t, []id.PersonID{113}, issuePersonIDs(grantIssues))
	revokeIssues, err := revoke.Issues(ctx, f.env(2026))
	require.NoError(t, err)
	assert.Empty(t, revokeIssues)

	// After repair both scans are clean.
	_, err = grant.Repair(ctx, f.env(2026), []id.PersonID{113}, sanity.Options{})
	require.NoError(t, err)
	grantIssues, err = grant.Issues(ctx, f.env(2026))
	require.NoError(t, err)
	assert.Empty(t, grantIssues)
	revokeIssues, err = revoke.Issues(ctx, f.env(2026))
	require.NoError(t, err)
	assert.Empty(t, revokeIssues)
}
