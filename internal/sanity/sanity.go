// Package sanity implements the position/role/team consistency checker: a
// registry of independent rule checks, each detecting one kind of drift
// between an account's status and the entitlements that status implies, plus
// a matching repair that corrects the drift auditably.
//
// Checks never mutate during a scan. All mutations flow through Repair and
// are mirrored to the audit publisher by the engine.
package sanity

import (
	"context"

	"rosterd/internal/roster/models"
	id "rosterd/pkg/domain"
)

// Check is one consistency rule. Issues is a deterministic, side-effect-free
// scan; Repair applies the minimal mutations needed for the requested people.
type Check interface {
	Name() string

	// Repairable reports whether the check supports repair at all. The
	// deactivated-positions check is report-only.
	Repairable() bool

	// Requires declares the option shape Repair needs, validated by the
	// engine before any mutation.
	Requires() OptionKind

	// Issues returns every person currently violating the rule, ordered by
	// callsign unless the check's nature requires grouping.
	Issues(ctx context.Context, env Env) ([]Issue, error)

	// Repair processes ids sequentially, one result per person. Per-person
	// logical mismatches land in that person's result errors; a store
	// failure aborts the remainder (earlier repairs stand).
	Repair(ctx context.Context, env Env, ids []id.PersonID, opts Options) ([]RepairResult, error)
}

// Env carries the per-invocation environment. Year is resolved once by the
// caller so every query within one invocation agrees on "this year".
type Env struct {
	Store   Store
	Catalog *Catalog
	Year    int
}

// OptionKind declares what a check's repair requires from the caller.
type OptionKind int

const (
	// OptionsNone - repair takes no options.
	OptionsNone OptionKind = iota
	// OptionsTeamID - repair requires Options.TeamID.
	OptionsTeamID
	// OptionsPersonTeams - repair requires Options.PersonTeams covering
	// every requested person id.
	OptionsPersonTeams
	// OptionsPersonPositions - repair requires Options.PersonPositions
	// covering every requested person id.
	OptionsPersonPositions
)

// Options carries the caller-supplied repair parameters. Ambiguous repairs
// (which team? which positions?) are never auto-resolved; the caller decides.
type Options struct {
	TeamID          *id.TeamID                      `json:"team_id,omitempty"`
	PersonTeams     map[id.PersonID][]id.TeamID     `json:"person_teams,omitempty"`
	PersonPositions map[id.PersonID][]id.PositionID `json:"person_positions,omitempty"`
}

// PositionRef identifies a position in issue output.
type PositionRef struct {
	ID    id.PositionID `json:"id"`
	Title string        `json:"title"`
}

// TeamRef identifies a team in issue output.
type TeamRef struct {
	ID    id.TeamID `json:"id"`
	Title string    `json:"title"`
}

// RoleRef identifies a role in issue output.
type RoleRef struct {
	ID    id.RoleID `json:"id"`
	Title string    `json:"title"`
}

// Issue is one detected discrepancy. The person triple is always present;
// the remaining fields carry whatever context a reviewer needs to decide on
// repair for the specific check.
type Issue struct {
	PersonID id.PersonID     `json:"person_id"`
	Callsign string          `json:"callsign"`
	Status   id.PersonStatus `json:"status"`

	Positions  []PositionRef `json:"positions,omitempty"`
	Team       *TeamRef      `json:"team,omitempty"`
	Teams      []TeamRef     `json:"teams,omitempty"`
	Role       *RoleRef      `json:"role,omitempty"`
	HoldsIt    *bool         `json:"holds_position,omitempty"`
	MentorYear *int          `json:"mentor_year,omitempty"`
}

// RepairResult is the outcome for one requested person. Exactly one of
// Messages or Errors is populated.
type RepairResult struct {
	PersonID id.PersonID `json:"id"`
	Messages []string    `json:"messages,omitempty"`
	Errors   []string    `json:"errors,omitempty"`
}

func repaired(pid id.PersonID, messages ...string) RepairResult {
	return RepairResult{PersonID: pid, Messages: messages}
}

func failed(pid id.PersonID, errs ...string) RepairResult {
	return RepairResult{PersonID: pid, Errors: errs}
}

func positionRef(p models.Position) PositionRef {
	return PositionRef{ID: p.ID, Title: p.Title}
}

func positionRefs(positions []models.Position) []PositionRef {
	refs := make([]PositionRef, 0, len(positions))
	for _, p := range positions {
		refs = append(refs, positionRef(p))
	}
	return refs
}
