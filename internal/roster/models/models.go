// Package models holds the roster entities. All rows are identified by
// opaque integer ids; the association tables (person_position, person_role,
// person_team, position_role, team_role) carry existence only.
package models

import (
	id "rosterd/pkg/domain"
)

// Person is a volunteer account.
type Person struct {
	ID       id.PersonID     `json:"id"`
	Callsign string          `json:"callsign"`
	Status   id.PersonStatus `json:"status"`
}

// Position is an operational duty a person can be granted.
//
// Invariants the sanity checks enforce:
//   - a position with Active=false is held by nobody
//   - AllRangers positions are held by every active-class person
//   - NewUserEligible positions are held by every onboarding-class person
//   - a TeamID+CategoryAllMembers position implies team membership
type Position struct {
	ID              id.PositionID   `json:"id"`
	Title           string          `json:"title"`
	Active          bool            `json:"active"`
	AllRangers      bool            `json:"all_rangers"`
	NewUserEligible bool            `json:"new_user_eligible"`
	TeamID          *id.TeamID      `json:"team_id,omitempty"`
	TeamCategory    id.TeamCategory `json:"team_category,omitempty"`
}

// Role is a capability grant, distinct from a Position. A role reachable
// through position_role or team_role rows is rule-granted; a bare
// person_role row is a manual grant.
type Role struct {
	ID    id.RoleID `json:"id"`
	Title string    `json:"title"`
}

// Team is an organizational grouping, optionally owning positions.
type Team struct {
	ID     id.TeamID `json:"id"`
	Title  string    `json:"title"`
	Active bool      `json:"active"`
}

// MentorPass records that a person passed mentoring evaluation in a year.
// The latest year is what the Shiny Penny check compares against.
type MentorPass struct {
	PersonID id.PersonID `json:"person_id"`
	Year     int         `json:"year"`
}
