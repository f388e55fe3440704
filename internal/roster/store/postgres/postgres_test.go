//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"rosterd/internal/sanity"
	id "rosterd/pkg/domain"
	"rosterd/pkg/platform/sentinel"
	"rosterd/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite

	pg    *containers.PostgresContainer
	store *Store
	ctx   context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = New(s.pg.DB)
}

func (s *PostgresStoreSuite) TearDownSuite() {
	_ = s.pg.DB.Close()
	_ = s.pg.Container.Terminate(s.ctx)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(s.ctx))
}

func (s *PostgresStoreSuite) seed(query string, args ...any) {
	s.T().Helper()
	_, err := s.pg.DB.ExecContext(s.ctx, query, args...)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TestLookups() {
	s.seed(`INSERT INTO person (id, callsign, status) VALUES (1, 'Echo', 'active')`)
	s.seed(`INSERT INTO position (id, title, active, all_rangers) VALUES (1, 'Dirt', TRUE, TRUE)`)

	person, err := s.store.PersonByID(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal("Echo", person.Callsign)
	s.Equal(id.StatusActive, person.Status)

	_, err = s.store.PersonByID(s.ctx, 99)
	s.True(errors.Is(err, sentinel.ErrNotFound))

	pos, err := s.store.PositionByTitle(s.ctx, "dirt")
	s.Require().NoError(err)
	s.Equal(id.PositionID(1), pos.ID)
	s.True(pos.AllRangers)
}

func (s *PostgresStoreSuite) TestPeopleHoldingPositions() {
	s.seed(`INSERT INTO person (id, callsign, status) VALUES
		(1, 'Zonker', 'bonked'), (2, 'Keeper', 'active')`)
	s.seed(`INSERT INTO position (id, title, active) VALUES (1, 'Dirt', TRUE), (2, 'Sanctuary', TRUE)`)
	s.seed(`INSERT INTO person_position VALUES (1, 1), (1, 2), (2, 1)`)

	rows, err := s.store.PeopleHoldingPositions(s.ctx, id.DeactivatedStatuses)
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Equal(id.PersonID(1), rows[0].Person.ID)
	s.Len(rows[0].Positions, 2)
}

func (s *PostgresStoreSuite) TestEligiblePeopleMissingPositions() {
	s.seed(`INSERT INTO person (id, callsign, status) VALUES
		(1, 'Vet', 'active'), (2, 'Newbie', 'alpha'), (3, 'Gone', 'resigned')`)
	s.seed(`INSERT INTO position (id, title, active, all_rangers, new_user_eligible) VALUES
		(1, 'Dirt', TRUE, TRUE, FALSE),
		(2, 'Training', TRUE, FALSE, TRUE),
		(3, 'Old Dirt', FALSE, TRUE, FALSE)`)
	s.seed(`INSERT INTO person_position VALUES (2, 2)`)

	rows, err := s.store.EligiblePeopleMissingPositions(s.ctx, id.AllRangersStatuses, sanity.FlagAllRangers)
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Equal(id.PersonID(1), rows[0].Person.ID)
	s.Require().Len(rows[0].Positions, 1)
	s.Equal("Dirt", rows[0].Positions[0].Title)

	rows, err = s.store.EligiblePeopleMissingPositions(s.ctx, id.NewUserStatuses, sanity.FlagNewUserEligible)
	s.Require().NoError(err)
	s.Empty(rows)
}

func (s *PostgresStoreSuite) TestTeamGapQueries() {
	s.seed(`INSERT INTO person (id, callsign, status) VALUES
		(1, 'Outsider', 'active'), (2, 'Joiner', 'active')`)
	s.seed(`INSERT INTO team (id, title, active) VALUES (1, 'Khaki', TRUE)`)
	s.seed(`INSERT INTO position (id, title, active, team_id, team_category) VALUES
		(1, 'Khaki Shift Lead', TRUE, 1, 'all_members'),
		(2, 'Khaki Mentor', TRUE, 1, 'optional')`)
	s.seed(`INSERT INTO person_position VALUES (1, 1), (2, 2)`)
	s.seed(`INSERT INTO person_team VALUES (2, 1)`)

	gaps, err := s.store.AllMembersHoldersWithoutMembership(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(gaps, 1)
	s.Equal(id.PersonID(1), gaps[0].Person.ID)
	s.Equal("Khaki", gaps[0].Team.Title)

	gaps, err = s.store.MembersMissingAllMembersPositions(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(gaps, 1)
	s.Equal(id.PersonID(2), gaps[0].Person.ID)
	s.Require().Len(gaps[0].Positions, 1)
	s.Equal("Khaki Shift Lead", gaps[0].Positions[0].Title)
}

func (s *PostgresStoreSuite) TestRoleQualificationQueries() {
	s.seed(`INSERT INTO person (id, callsign, status) VALUES
		(1, 'Commander', 'active'), (2, 'Stale', 'active'), (3, 'ByTeam', 'active')`)
	s.seed(`INSERT INTO role (id, title) VALUES (1, 'Management Mode'), (2, 'Tech Team')`)
	s.seed(`INSERT INTO team (id, title, active) VALUES (1, 'Ops', TRUE)`)
	s.seed(`INSERT INTO position (id, title, active) VALUES (1, 'Shift Command', TRUE)`)
	s.seed(`INSERT INTO position_role VALUES (1, 1)`)
	s.seed(`INSERT INTO team_role VALUES (1, 1)`)
	s.seed(`INSERT INTO person_position VALUES (1, 1)`)
	s.seed(`INSERT INTO person_role VALUES (2, 1), (3, 1)`)
	s.seed(`INSERT INTO person_team VALUES (3, 1)`)

	missing, err := s.store.QualifiedMissingRole(s.ctx, 1, 2)
	s.Require().NoError(err)
	s.Require().Len(missing, 1)
	s.Equal(id.PersonID(1), missing[0].Person.ID)

	stale, err := s.store.StaleRoleHolders(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(stale, 1)
	s.Equal(id.PersonID(2), stale[0].ID)

	qualifies, err := s.store.QualifiesForRole(s.ctx, 3, 1)
	s.Require().NoError(err)
	s.True(qualifies)
	qualifies, err = s.store.QualifiesForRole(s.ctx, 2, 1)
	s.Require().NoError(err)
	s.False(qualifies)
}

func (s *PostgresStoreSuite) TestMutationsAndTx() {
	s.seed(`INSERT INTO person (id, callsign, status) VALUES (1, 'Echo', 'active')`)
	s.seed(`INSERT INTO position (id, title, active) VALUES (1, 'Dirt', TRUE), (2, 'Sanctuary', TRUE)`)

	s.Require().NoError(s.store.GrantPositions(s.ctx, 1, []id.PositionID{1, 2}))
	s.Require().NoError(s.store.GrantPositions(s.ctx, 1, []id.PositionID{1}))
	held, err := s.store.PositionsHeld(s.ctx, 1)
	s.Require().NoError(err)
	s.Len(held, 2)

	// A failing transaction leaves no partial state behind.
	boom := errors.New("boom")
	err = s.store.WithinTx(s.ctx, func(ctx context.Context) error {
		if err := s.store.RevokeAllPositions(ctx, 1); err != nil {
			return err
		}
		return boom
	})
	s.Require().ErrorIs(err, boom)
	held, err = s.store.PositionsHeld(s.ctx, 1)
	s.Require().NoError(err)
	s.Len(held, 2)

	err = s.store.WithinTx(s.ctx, func(ctx context.Context) error {
		return s.store.RevokeAllPositions(ctx, 1)
	})
	s.Require().NoError(err)
	held, err = s.store.PositionsHeld(s.ctx, 1)
	s.Require().NoError(err)
	s.Empty(held)
}

func (s *PostgresStoreSuite) TestMentorPassQueries() {
	s.seed(`INSERT INTO person (id, callsign, status) VALUES (1, 'Fresh', 'active'), (2, 'Faded', 'active')`)
	s.seed(`INSERT INTO person_mentor_pass VALUES (1, 2025), (1, 2026), (2, 2025)`)

	year, ok, err := s.store.LatestMentorPassYear(s.ctx, 1)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(2026, year)

	_, ok, err = s.store.LatestMentorPassYear(s.ctx, 99)
	s.Require().NoError(err)
	s.False(ok)

	people, err := s.store.PeopleWithMentorPassIn(s.ctx, 2025)
	s.Require().NoError(err)
	s.Require().Len(people, 1)
	s.Equal(id.PersonID(2), people[0].ID)
}
