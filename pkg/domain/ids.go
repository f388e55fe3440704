// Package domain defines the typed identifiers and enumerations shared by
// every layer. Stores accept and return these types so a position id can
// never be passed where a role id is expected.
package domain

import "strconv"

type (
	PersonID   int64
	PositionID int64
	RoleID     int64
	TeamID     int64
)

func (id PersonID) IsZero() bool   { return id == 0 }
func (id PositionID) IsZero() bool { return id == 0 }
func (id RoleID) IsZero() bool     { return id == 0 }
func (id TeamID) IsZero() bool     { return id == 0 }

func (id PersonID) String() string   { return strconv.FormatInt(int64(id), 10) }
func (id PositionID) String() string { return strconv.FormatInt(int64(id), 10) }
func (id RoleID) String() string     { return strconv.FormatInt(int64(id), 10) }
func (id TeamID) String() string     { return strconv.FormatInt(int64(id), 10) }

// ParsePersonID parses a decimal person id, as found in URL paths.
func ParsePersonID(s string) (PersonID, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	return PersonID(v), err
}
