package sanity

import (
	"context"

	"rosterd/internal/roster/models"
	id "rosterd/pkg/domain"
)

// PositionFlag selects one of the position eligibility flags in queries.
type PositionFlag int

const (
	FlagAllRangers PositionFlag = iota
	FlagNewUserEligible
)

// PersonPositions pairs a person with a set of positions relevant to the
// query that produced it (held, offending, or candidate - query-defined).
type PersonPositions struct {
	Person    models.Person
	Positions []models.Position
}

// TeamMembers pairs a team with its current members.
type TeamMembers struct {
	Team    models.Team
	Members []models.Person
}

// TeamGap describes a person/team pair whose membership and all_members
// positions disagree. Positions carries the positions driving the gap.
type TeamGap struct {
	Person    models.Person
	Team      models.Team
	Positions []models.Position
}

// Store is the entitlement store contract the checker needs from the
// relational store. Reads are named per detection pattern (existence-join,
// anti-join, group-by) so each check maps to one explicit query; writes are
// idempotent association-row operations. Implementations must make every
// write visible to reads issued through the same transactional context.
type Store interface {
	// --- lookups ---

	PersonByID(ctx context.Context, pid id.PersonID) (*models.Person, error)
	TeamByID(ctx context.Context, tid id.TeamID) (*models.Team, error)
	PositionByID(ctx context.Context, posID id.PositionID) (*models.Position, error)
	PositionByTitle(ctx context.Context, title string) (*models.Position, error)
	RoleByTitle(ctx context.Context, title string) (*models.Role, error)
	PositionsHeld(ctx context.Context, pid id.PersonID) ([]models.Position, error)
	PositionsByFlag(ctx context.Context, flag PositionFlag) ([]models.Position, error)
	HasRole(ctx context.Context, pid id.PersonID, rid id.RoleID) (bool, error)

	// --- detection queries ---

	// PeopleHoldingPositions returns every person in one of the given
	// statuses who holds at least one position, with all held positions.
	PeopleHoldingPositions(ctx context.Context, statuses []id.PersonStatus) ([]PersonPositions, error)

	// InactivePositionHolders returns holders of positions flagged
	// active=false, with only the inactive positions attached.
	InactivePositionHolders(ctx context.Context) ([]PersonPositions, error)

	// InactiveTeamsWithMembers returns inactive teams that still have
	// members, grouped by team.
	InactiveTeamsWithMembers(ctx context.Context) ([]TeamMembers, error)

	// EligiblePeopleMissingPositions anti-joins: people in the given
	// statuses missing at least one active position carrying the flag,
	// with the missing positions attached.
	EligiblePeopleMissingPositions(ctx context.Context, statuses []id.PersonStatus, flag PositionFlag) ([]PersonPositions, error)

	// AllMembersHoldersWithoutMembership returns person/team pairs where
	// the person holds an all_members position scoped to the team but has
	// no membership row. One TeamGap per person x team.
	AllMembersHoldersWithoutMembership(ctx context.Context) ([]TeamGap, error)

	// MembersMissingAllMembersPositions returns person/team pairs where a
	// member lacks one of the team's all_members positions.
	MembersMissingAllMembersPositions(ctx context.Context) ([]TeamGap, error)

	// HoldersAmong returns every person holding at least one of the given
	// positions, with the held subset attached.
	HoldersAmong(ctx context.Context, positions []id.PositionID) ([]PersonPositions, error)

	// LatestMentorPassYear returns the most recent mentoring pass year for
	// a person; ok=false means no mentor history at all.
	LatestMentorPassYear(ctx context.Context, pid id.PersonID) (year int, ok bool, err error)

	// PeopleWithMentorPassIn returns everyone whose latest mentoring pass
	// year equals the given year.
	PeopleWithMentorPassIn(ctx context.Context, year int) ([]models.Person, error)

	// QualifiedMissingRole returns people holding at least one position
	// that grants the role through position_role but lacking the role
	// itself, excluding anyone holding ignore (zero ignore means none).
	// The qualifying held positions are attached.
	QualifiedMissingRole(ctx context.Context, rid id.RoleID, ignore id.RoleID) ([]PersonPositions, error)

	// StaleRoleHolders returns people manually granted the role via
	// person_role who hold no position qualifying through position_role and
	// belong to no team qualifying through team_role.
	StaleRoleHolders(ctx context.Context, rid id.RoleID) ([]models.Person, error)

	// QualifiesForRole reports whether the person holds a qualifying
	// position (position_role) or qualifying team membership (team_role).
	QualifiesForRole(ctx context.Context, pid id.PersonID, rid id.RoleID) (bool, error)

	// --- mutations (idempotent) ---

	GrantPositions(ctx context.Context, pid id.PersonID, positions []id.PositionID) error
	RevokePositions(ctx context.Context, pid id.PersonID, positions []id.PositionID) error
	RevokeAllPositions(ctx context.Context, pid id.PersonID) error
	AddTeamMemberships(ctx context.Context, pid id.PersonID, teams []id.TeamID) error
	RemoveTeamMembership(ctx context.Context, pid id.PersonID, tid id.TeamID) error
	GrantRole(ctx context.Context, pid id.PersonID, rid id.RoleID) error
	RevokeRole(ctx context.Context, pid id.PersonID, rid id.RoleID) error

	// WithinTx runs fn so that all mutations inside commit as one unit.
	// A crash mid-repair must not leave one person half-fixed.
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
