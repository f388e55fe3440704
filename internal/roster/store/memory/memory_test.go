package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rosterd/internal/roster/models"
	"rosterd/internal/sanity"
	id "rosterd/pkg/domain"
	"rosterd/pkg/platform/sentinel"
)

func TestLookupsReturnSentinelNotFound(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.PersonByID(ctx, 1)
	assert.True(t, errors.Is(err, sentinel.ErrNotFound))
	_, err = s.TeamByID(ctx, 1)
	assert.True(t, errors.Is(err, sentinel.ErrNotFound))
	_, err = s.PositionByTitle(ctx, "Dirt")
	assert.True(t, errors.Is(err, sentinel.ErrNotFound))
	_, err = s.RoleByTitle(ctx, "Nobody")
	assert.True(t, errors.Is(err, sentinel.ErrNotFound))
}

func TestTitleLookupsAreCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.PutPosition(models.Position{ID: 1, Title: "Dirt Green Dot", Active: true})
	s.PutRole(models.Role{ID: 1, Title: "Management Mode"})

	pos, err := s.PositionByTitle(ctx, "dirt green dot")
	require.NoError(t, err)
	assert.Equal(t, id.PositionID(1), pos.ID)

	role, err := s.RoleByTitle(ctx, "MANAGEMENT MODE")
	require.NoError(t, err)
	assert.Equal(t, id.RoleID(1), role.ID)
}

func TestMutationsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.PutPerson(models.Person{ID: 1, Callsign: "Echo", Status: id.StatusActive})
	s.PutPosition(models.Position{ID: 1, Title: "Dirt", Active: true})

	require.NoError(t, s.GrantPositions(ctx, 1, []id.PositionID{1}))
	require.NoError(t, s.GrantPositions(ctx, 1, []id.PositionID{1}))
	held, err := s.PositionsHeld(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, held, 1)

	require.NoError(t, s.RevokePositions(ctx, 1, []id.PositionID{1}))
	require.NoError(t, s.RevokePositions(ctx, 1, []id.PositionID{1}))
	held, err = s.PositionsHeld(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, held)
}

func TestHoldersAmongReturnsHeldSubset(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.PutPerson(models.Person{ID: 1, Callsign: "Echo", Status: id.StatusActive})
	s.PutPosition(models.Position{ID: 1, Title: "A", Active: true})
	s.PutPosition(models.Position{ID: 2, Title: "B", Active: true})
	s.PutPosition(models.Position{ID: 3, Title: "C", Active: true})
	require.NoError(t, s.GrantPositions(ctx, 1, []id.PositionID{1, 3}))

	rows, err := s.HoldersAmong(ctx, []id.PositionID{1, 2})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Len(t, rows[0].Positions, 1)
	assert.Equal(t, id.PositionID(1), rows[0].Positions[0].ID)

	rows, err = s.HoldersAmong(ctx, []id.PositionID{2})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestEligiblePeopleMissingPositionsSkipsInactive(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.PutPerson(models.Person{ID: 1, Callsign: "Echo", Status: id.StatusActive})
	s.PutPosition(models.Position{ID: 1, Title: "Dirt", Active: true, AllRangers: true})
	s.PutPosition(models.Position{ID: 2, Title: "Old Dirt", Active: false, AllRangers: true})

	rows, err := s.EligiblePeopleMissingPositions(ctx, id.AllRangersStatuses, sanity.FlagAllRangers)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Len(t, rows[0].Positions, 1)
	assert.Equal(t, id.PositionID(1), rows[0].Positions[0].ID)
}

func TestLatestMentorPassYear(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.PutPerson(models.Person{ID: 1, Callsign: "Echo", Status: id.StatusActive})

	_, ok, err := s.LatestMentorPassYear(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	s.AddMentorPass(1, 2024)
	s.AddMentorPass(1, 2026)
	s.AddMentorPass(1, 2025)

	year, ok, err := s.LatestMentorPassYear(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2026, year)

	// Only the latest year counts as "passed in".
	people, err := s.PeopleWithMentorPassIn(ctx, 2025)
	require.NoError(t, err)
	assert.Empty(t, people)
	people, err = s.PeopleWithMentorPassIn(ctx, 2026)
	require.NoError(t, err)
	assert.Len(t, people, 1)
}

func TestReaderListings(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.PutPerson(models.Person{ID: 2, Callsign: "Bravo", Status: id.StatusActive})
	s.PutPerson(models.Person{ID: 1, Callsign: "Alpha", Status: id.StatusRetired})

	people, err := s.ListPeople(ctx, "")
	require.NoError(t, err)
	require.Len(t, people, 2)
	assert.Equal(t, "Alpha", people[0].Callsign)

	people, err = s.ListPeople(ctx, id.StatusRetired)
	require.NoError(t, err)
	require.Len(t, people, 1)
	assert.Equal(t, id.PersonID(1), people[0].ID)
}
