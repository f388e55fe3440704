package sanity_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rosterd/internal/sanity"
	id "rosterd/pkg/domain"
)

func TestGreenDotDetectsPartialHolders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	check := f.check(t, "green-dot")

	f.addPerson(80, "Partial", id.StatusActive)
	f.addPerson(81, "Complete", id.StatusActive)
	f.addPerson(82, "Civilian", id.StatusActive)
	require.NoError(t, f.store.GrantPositions(ctx, 80, []id.PositionID{posDirtGreenDot}))
	require.NoError(t, f.store.GrantPositions(ctx, 81, []id.PositionID{posDirtGreenDot, posSanctuary, posGerlachGD}))

	issues, err := check.Issues(ctx, f.env(2026))
	require.NoError(t, err)
	// Full-set holders and non-holders are both clean.
	require.Equal(t, []id.PersonID{80}, issuePersonIDs(issues))
	require.Len(t, issues[0].Positions, 2)
}

func TestGreenDotRepairFillsTheSet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	check := f.check(t, "green-dot")

	f.addPerson(80, "Partial", id.StatusActive)
	require.NoError(t, f.store.GrantPositions(ctx, 80, []id.PositionID{posSanctuary}))

	results, err := check.Repair(ctx, f.env(2026), []id.PersonID{80}, sanity.Options{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, []string{
		"added " + sanity.PositionDirtGreenDot,
		"added " + sanity.PositionGerlachPatrolGreenDot,
	}, results[0].Messages)

	held, err := f.store.PositionsHeld(ctx, 80)
	require.NoError(t, err)
	assert.Len(t, held, 3)

	// Second run: nothing left to add.
	results, err = check.Repair(ctx, f.env(2026), []id.PersonID{80}, sanity.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"already holds the full Green Dot set"}, results[0].Errors)
}

func TestGreenDotRepairRefusesNonGreenDots(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	check := f.check(t, "green-dot")

	// Holding only the derived Gerlach position is not enough to count as
	// a Green Dot.
	f.addPerson(83, "Derived", id.StatusActive)
	require.NoError(t, f.store.GrantPositions(ctx, 83, []id.PositionID{posGerlachGD}))
	f.addPerson(82, "Civilian", id.StatusActive)

	results, err := check.Repair(ctx, f.env(2026), []id.PersonID{83, 82}, sanity.Options{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, []string{"not a Green Dot"}, results[0].Errors)
	assert.Equal(t, []string{"not a Green Dot"}, results[1].Errors)

	held, err := f.store.PositionsHeld(ctx, 82)
	require.NoError(t, err)
	assert.Empty(t, held)
}

func TestShinyPenny(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	check := f.check(t, "shiny-penny")

	f.addPerson(90, "Fresh", id.StatusActive) // passed this year, no position
	f.store.AddMentorPass(90, 2026)
	f.addPerson(91, "Faded", id.StatusActive) // holds position, passed last year
	f.store.AddMentorPass(91, 2025)
	require.NoError(t, f.store.GrantPositions(ctx, 91, []id.PositionID{posShinyPenny}))
	f.addPerson(92, "Current", id.StatusActive) // in sync
	f.store.AddMentorPass(92, 2026)
	require.NoError(t, f.store.GrantPositions(ctx, 92, []id.PositionID{posShinyPenny}))

	issues, err := check.Issues(ctx, f.env(2026))
	require.NoError(t, err)
	require.Equal(t, []id.PersonID{91, 90}, issuePersonIDs(issues))
	require.NotNil(t, issues[0].HoldsIt)
	assert.True(t, *issues[0].HoldsIt)
	require.NotNil(t, issues[0].MentorYear)
	assert.Equal(t, 2025, *issues[0].MentorYear)
	assert.False(t, *issues[1].HoldsIt)

	results, err := check.Repair(ctx, f.env(2026), []id.PersonID{90, 91, 92}, sanity.Options{})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []string{"is a Shiny Penny, position added"}, results[0].Messages)
	assert.Equal(t, []string{"not a Shiny Penny, position removed"}, results[1].Messages)
	assert.Equal(t, []string{"no mismatch found"}, results[2].Errors)

	issues, err = check.Issues(ctx, f.env(2026))
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestShinyPennyYearBoundary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	check := f.check(t, "shiny-penny")

	f.addPerson(90, "Fresh", id.StatusActive)
	f.store.AddMentorPass(90, 2026)
	require.NoError(t, f.store.GrantPositions(ctx, 90, []id.PositionID{posShinyPenny}))

	// Against 2026 the account is in sync; one year later the same data
	// means the position is stale.
	issues, err := check.Issues(ctx, f.env(2026))
	require.NoError(t, err)
	assert.Empty(t, issues)

	issues, err = check.Issues(ctx, f.env(2027))
	require.NoError(t, err)
	require.Equal(t, []id.PersonID{90}, issuePersonIDs(issues))
	assert.True(t, *issues[0].HoldsIt)
}

func TestShinyPennyNoMentorHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	check := f.check(t, "shiny-penny")

	f.addPerson(93, "Unmentored", id.StatusActive)
	results, err := check.Repair(ctx, f.env(2026), []id.PersonID{93}, sanity.Options{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, []string{"no mentor history"}, results[0].Errors)
}
