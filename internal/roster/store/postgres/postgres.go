// Package postgres implements the roster store on PostgreSQL. Detection
// queries are written as the joins and anti-joins the contract names so the
// planner does the set arithmetic, not Go.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"rosterd/internal/roster/models"
	"rosterd/internal/sanity"
	id "rosterd/pkg/domain"
	"rosterd/pkg/platform/sentinel"
	txcontext "rosterd/pkg/platform/tx"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// execer returns the context transaction when one is active so every read
// and write inside WithinTx sees the same snapshot.
func (s *Store) execer(ctx context.Context) queryer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const personColumns = "p.id, p.callsign, p.status"
const positionColumns = "pos.id, pos.title, pos.active, pos.all_rangers, pos.new_user_eligible, pos.team_id, COALESCE(pos.team_category, '')"

func scanPerson(row interface{ Scan(...any) error }, p *models.Person) error {
	return row.Scan(&p.ID, &p.Callsign, &p.Status)
}

func scanPosition(row interface{ Scan(...any) error }, p *models.Position) error {
	var teamID sql.NullInt64
	if err := row.Scan(&p.ID, &p.Title, &p.Active, &p.AllRangers, &p.NewUserEligible, &teamID, &p.TeamCategory); err != nil {
		return err
	}
	if teamID.Valid {
		tid := id.TeamID(teamID.Int64)
		p.TeamID = &tid
	}
	return nil
}

// --- lookups ---

func (s *Store) PersonByID(ctx context.Context, pid id.PersonID) (*models.Person, error) {
	const query = `SELECT p.id, p.callsign, p.status FROM person p WHERE p.id = $1`
	var p models.Person
	err := scanPerson(s.execer(ctx).QueryRowContext(ctx, query, int64(pid)), &p)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("person %d: %w", pid, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query person: %w", err)
	}
	return &p, nil
}

func (s *Store) TeamByID(ctx context.Context, tid id.TeamID) (*models.Team, error) {
	const query = `SELECT id, title, active FROM team WHERE id = $1`
	var t models.Team
	err := s.execer(ctx).QueryRowContext(ctx, query, int64(tid)).Scan(&t.ID, &t.Title, &t.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("team %d: %w", tid, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query team: %w", err)
	}
	return &t, nil
}

func (s *Store) PositionByID(ctx context.Context, posID id.PositionID) (*models.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM position pos WHERE pos.id = $1`
	var p models.Position
	err := scanPosition(s.execer(ctx).QueryRowContext(ctx, query, int64(posID)), &p)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("position %d: %w", posID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query position: %w", err)
	}
	return &p, nil
}

func (s *Store) PositionByTitle(ctx context.Context, title string) (*models.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM position pos WHERE LOWER(pos.title) = LOWER($1)`
	var p models.Position
	err := scanPosition(s.execer(ctx).QueryRowContext(ctx, query, title), &p)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("position %q: %w", title, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query position by title: %w", err)
	}
	return &p, nil
}

func (s *Store) RoleByTitle(ctx context.Context, title string) (*models.Role, error) {
	const query = `SELECT id, title FROM role WHERE LOWER(title) = LOWER($1)`
	var r models.Role
	err := s.execer(ctx).QueryRowContext(ctx, query, title).Scan(&r.ID, &r.Title)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("role %q: %w", title, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query role by title: %w", err)
	}
	return &r, nil
}

func (s *Store) PositionsHeld(ctx context.Context, pid id.PersonID) ([]models.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM person_position pp
		JOIN position pos ON pos.id = pp.position_id
		WHERE pp.person_id = $1
		ORDER BY pos.id
	`
	return s.positions(ctx, query, int64(pid))
}

func (s *Store) PositionsByFlag(ctx context.Context, flag sanity.PositionFlag) ([]models.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM position pos
		WHERE pos.active AND ` + flagColumn(flag) + `
		ORDER BY pos.id
	`
	return s.positions(ctx, query)
}

func (s *Store) HasRole(ctx context.Context, pid id.PersonID, rid id.RoleID) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM person_role WHERE person_id = $1 AND role_id = $2)`
	var has bool
	if err := s.execer(ctx).QueryRowContext(ctx, query, int64(pid), int64(rid)).Scan(&has); err != nil {
		return false, fmt.Errorf("query person role: %w", err)
	}
	return has, nil
}

// --- detection queries ---

func (s *Store) PeopleHoldingPositions(ctx context.Context, statuses []id.PersonStatus) ([]sanity.PersonPositions, error) {
	query := `
		SELECT ` + personColumns + `, ` + positionColumns + `
		FROM person p
		JOIN person_position pp ON pp.person_id = p.id
		JOIN position pos ON pos.id = pp.position_id
		WHERE p.status = ANY($1)
		ORDER BY p.callsign, p.id, pos.id
	`
	return s.personPositionRows(ctx, query, statusArray(statuses))
}

func (s *Store) InactivePositionHolders(ctx context.Context) ([]sanity.PersonPositions, error) {
	query := `
		SELECT ` + personColumns + `, ` + positionColumns + `
		FROM person p
		JOIN person_position pp ON pp.person_id = p.id
		JOIN position pos ON pos.id = pp.position_id
		WHERE NOT pos.active
		ORDER BY p.callsign, p.id, pos.id
	`
	return s.personPositionRows(ctx, query)
}

func (s *Store) InactiveTeamsWithMembers(ctx context.Context) ([]sanity.TeamMembers, error) {
	const query = `
		SELECT t.id, t.title, t.active, p.id, p.callsign, p.status
		FROM team t
		JOIN person_team pt ON pt.team_id = t.id
		JOIN person p ON p.id = pt.person_id
		WHERE NOT t.active
		ORDER BY t.title, t.id, p.callsign, p.id
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query inactive teams: %w", err)
	}
	defer rows.Close()

	var out []sanity.TeamMembers
	for rows.Next() {
		var t models.Team
		var p models.Person
		if err := rows.Scan(&t.ID, &t.Title, &t.Active, &p.ID, &p.Callsign, &p.Status); err != nil {
			return nil, fmt.Errorf("scan inactive team member: %w", err)
		}
		if len(out) == 0 || out[len(out)-1].Team.ID != t.ID {
			out = append(out, sanity.TeamMembers{Team: t})
		}
		out[len(out)-1].Members = append(out[len(out)-1].Members, p)
	}
	return out, rows.Err()
}

func (s *Store) EligiblePeopleMissingPositions(ctx context.Context, statuses []id.PersonStatus, flag sanity.PositionFlag) ([]sanity.PersonPositions, error) {
	query := `
		SELECT ` + personColumns + `, ` + positionColumns + `
		FROM person p
		CROSS JOIN position pos
		WHERE p.status = ANY($1)
		  AND pos.active AND ` + flagColumn(flag) + `
		  AND NOT EXISTS (
			SELECT 1 FROM person_position pp
			WHERE pp.person_id = p.id AND pp.position_id = pos.id
		  )
		ORDER BY p.callsign, p.id, pos.id
	`
	return s.personPositionRows(ctx, query, statusArray(statuses))
}

func (s *Store) AllMembersHoldersWithoutMembership(ctx context.Context) ([]sanity.TeamGap, error) {
	const query = `
		SELECT p.id, p.callsign, p.status, t.id, t.title, t.active,
		       pos.id, pos.title, pos.active, pos.all_rangers, pos.new_user_eligible, pos.team_id, COALESCE(pos.team_category, '')
		FROM person_position pp
		JOIN person p ON p.id = pp.person_id
		JOIN position pos ON pos.id = pp.position_id
		JOIN team t ON t.id = pos.team_id
		WHERE pos.team_category = 'all_members'
		  AND NOT EXISTS (
			SELECT 1 FROM person_team pt
			WHERE pt.person_id = p.id AND pt.team_id = pos.team_id
		  )
		ORDER BY p.callsign, p.id, t.id, pos.id
	`
	return s.teamGapRows(ctx, query)
}

func (s *Store) MembersMissingAllMembersPositions(ctx context.Context) ([]sanity.TeamGap, error) {
	const query = `
		SELECT p.id, p.callsign, p.status, t.id, t.title, t.active,
		       pos.id, pos.title, pos.active, pos.all_rangers, pos.new_user_eligible, pos.team_id, COALESCE(pos.team_category, '')
		FROM person_team pt
		JOIN person p ON p.id = pt.person_id
		JOIN team t ON t.id = pt.team_id
		JOIN position pos ON pos.team_id = t.id
		WHERE pos.team_category = 'all_members' AND pos.active
		  AND NOT EXISTS (
			SELECT 1 FROM person_position pp
			WHERE pp.person_id = p.id AND pp.position_id = pos.id
		  )
		ORDER BY p.callsign, p.id, t.id, pos.id
	`
	return s.teamGapRows(ctx, query)
}

func (s *Store) HoldersAmong(ctx context.Context, positions []id.PositionID) ([]sanity.PersonPositions, error) {
	query := `
		SELECT ` + personColumns + `, ` + positionColumns + `
		FROM person p
		JOIN person_position pp ON pp.person_id = p.id
		JOIN position pos ON pos.id = pp.position_id
		WHERE pp.position_id = ANY($1)
		ORDER BY p.callsign, p.id, pos.id
	`
	return s.personPositionRows(ctx, query, positionArray(positions))
}

func (s *Store) LatestMentorPassYear(ctx context.Context, pid id.PersonID) (int, bool, error) {
	const query = `SELECT MAX(year) FROM person_mentor_pass WHERE person_id = $1`
	var year sql.NullInt64
	if err := s.execer(ctx).QueryRowContext(ctx, query, int64(pid)).Scan(&year); err != nil {
		return 0, false, fmt.Errorf("query mentor pass: %w", err)
	}
	if !year.Valid {
		return 0, false, nil
	}
	return int(year.Int64), true, nil
}

func (s *Store) PeopleWithMentorPassIn(ctx context.Context, year int) ([]models.Person, error) {
	const query = `
		SELECT p.id, p.callsign, p.status
		FROM person p
		JOIN (
			SELECT person_id, MAX(year) AS latest
			FROM person_mentor_pass
			GROUP BY person_id
		) mp ON mp.person_id = p.id
		WHERE mp.latest = $1
		ORDER BY p.callsign, p.id
	`
	return s.people(ctx, query, year)
}

func (s *Store) QualifiedMissingRole(ctx context.Context, rid id.RoleID, ignore id.RoleID) ([]sanity.PersonPositions, error) {
	query := `
		SELECT ` + personColumns + `, ` + positionColumns + `
		FROM person p
		JOIN person_position pp ON pp.person_id = p.id
		JOIN position pos ON pos.id = pp.position_id
		JOIN position_role pr ON pr.position_id = pos.id AND pr.role_id = $1
		WHERE NOT EXISTS (
			SELECT 1 FROM person_role held
			WHERE held.person_id = p.id AND held.role_id = $1
		  )
		  AND ($2 = 0 OR NOT EXISTS (
			SELECT 1 FROM person_role ignored
			WHERE ignored.person_id = p.id AND ignored.role_id = $2
		  ))
		ORDER BY p.callsign, p.id, pos.id
	`
	return s.personPositionRows(ctx, query, int64(rid), int64(ignore))
}

func (s *Store) StaleRoleHolders(ctx context.Context, rid id.RoleID) ([]models.Person, error) {
	const query = `
		SELECT p.id, p.callsign, p.status
		FROM person p
		JOIN person_role held ON held.person_id = p.id AND held.role_id = $1
		WHERE NOT EXISTS (
			SELECT 1
			FROM person_position pp
			JOIN position_role pr ON pr.position_id = pp.position_id AND pr.role_id = $1
			WHERE pp.person_id = p.id
		  )
		  AND NOT EXISTS (
			SELECT 1
			FROM person_team pt
			JOIN team_role tr ON tr.team_id = pt.team_id AND tr.role_id = $1
			WHERE pt.person_id = p.id
		  )
		ORDER BY p.callsign, p.id
	`
	return s.people(ctx, query, int64(rid))
}

func (s *Store) QualifiesForRole(ctx context.Context, pid id.PersonID, rid id.RoleID) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1
			FROM person_position pp
			JOIN position_role pr ON pr.position_id = pp.position_id AND pr.role_id = $2
			WHERE pp.person_id = $1
		) OR EXISTS (
			SELECT 1
			FROM person_team pt
			JOIN team_role tr ON tr.team_id = pt.team_id AND tr.role_id = $2
			WHERE pt.person_id = $1
		)
	`
	var qualifies bool
	if err := s.execer(ctx).QueryRowContext(ctx, query, int64(pid), int64(rid)).Scan(&qualifies); err != nil {
		return false, fmt.Errorf("query role qualification: %w", err)
	}
	return qualifies, nil
}

// --- mutations ---

func (s *Store) GrantPositions(ctx context.Context, pid id.PersonID, positions []id.PositionID) error {
	const query = `
		INSERT INTO person_position (person_id, position_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING
	`
	if _, err := s.execer(ctx).ExecContext(ctx, query, int64(pid), positionArray(positions)); err != nil {
		return fmt.Errorf("grant positions: %w", err)
	}
	return nil
}

func (s *Store) RevokePositions(ctx context.Context, pid id.PersonID, positions []id.PositionID) error {
	const query = `DELETE FROM person_position WHERE person_id = $1 AND position_id = ANY($2)`
	if _, err := s.execer(ctx).ExecContext(ctx, query, int64(pid), positionArray(positions)); err != nil {
		return fmt.Errorf("revoke positions: %w", err)
	}
	return nil
}

func (s *Store) RevokeAllPositions(ctx context.Context, pid id.PersonID) error {
	const query = `DELETE FROM person_position WHERE person_id = $1`
	if _, err := s.execer(ctx).ExecContext(ctx, query, int64(pid)); err != nil {
		return fmt.Errorf("revoke all positions: %w", err)
	}
	return nil
}

func (s *Store) AddTeamMemberships(ctx context.Context, pid id.PersonID, teams []id.TeamID) error {
	const query = `
		INSERT INTO person_team (person_id, team_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING
	`
	if _, err := s.execer(ctx).ExecContext(ctx, query, int64(pid), teamArray(teams)); err != nil {
		return fmt.Errorf("add team memberships: %w", err)
	}
	return nil
}

func (s *Store) RemoveTeamMembership(ctx context.Context, pid id.PersonID, tid id.TeamID) error {
	const query = `DELETE FROM person_team WHERE person_id = $1 AND team_id = $2`
	if _, err := s.execer(ctx).ExecContext(ctx, query, int64(pid), int64(tid)); err != nil {
		return fmt.Errorf("remove team membership: %w", err)
	}
	return nil
}

func (s *Store) GrantRole(ctx context.Context, pid id.PersonID, rid id.RoleID) error {
	const query = `INSERT INTO person_role (person_id, role_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := s.execer(ctx).ExecContext(ctx, query, int64(pid), int64(rid)); err != nil {
		return fmt.Errorf("grant role: %w", err)
	}
	return nil
}

func (s *Store) RevokeRole(ctx context.Context, pid id.PersonID, rid id.RoleID) error {
	const query = `DELETE FROM person_role WHERE person_id = $1 AND role_id = $2`
	if _, err := s.execer(ctx).ExecContext(ctx, query, int64(pid), int64(rid)); err != nil {
		return fmt.Errorf("revoke role: %w", err)
	}
	return nil
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return txcontext.Within(ctx, s.db, fn)
}

// --- scan helpers ---

func (s *Store) positions(ctx context.Context, query string, args ...any) ([]models.Position, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query positions: %w", err)
	}
	defer rows.Close()

	var out []models.Position
	for rows.Next() {
		var p models.Position
		if err := scanPosition(rows, &p); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) people(ctx context.Context, query string, args ...any) ([]models.Person, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query people: %w", err)
	}
	defer rows.Close()

	var out []models.Person
	for rows.Next() {
		var p models.Person
		if err := scanPerson(rows, &p); err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// personPositionRows folds (person, position) rows ordered by person into
// one PersonPositions per person.
func (s *Store) personPositionRows(ctx context.Context, query string, args ...any) ([]sanity.PersonPositions, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query person positions: %w", err)
	}
	defer rows.Close()

	var out []sanity.PersonPositions
	for rows.Next() {
		var p models.Person
		var pos models.Position
		var teamID sql.NullInt64
		if err := rows.Scan(
			&p.ID, &p.Callsign, &p.Status,
			&pos.ID, &pos.Title, &pos.Active, &pos.AllRangers, &pos.NewUserEligible, &teamID, &pos.TeamCategory,
		); err != nil {
			return nil, fmt.Errorf("scan person position: %w", err)
		}
		if teamID.Valid {
			tid := id.TeamID(teamID.Int64)
			pos.TeamID = &tid
		}
		if len(out) == 0 || out[len(out)-1].Person.ID != p.ID {
			out = append(out, sanity.PersonPositions{Person: p})
		}
		out[len(out)-1].Positions = append(out[len(out)-1].Positions, pos)
	}
	return out, rows.Err()
}

// teamGapRows folds (person, team, position) rows ordered by person then
// team into one TeamGap per person x team.
func (s *Store) teamGapRows(ctx context.Context, query string, args ...any) ([]sanity.TeamGap, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query team gaps: %w", err)
	}
	defer rows.Close()

	var out []sanity.TeamGap
	for rows.Next() {
		var p models.Person
		var t models.Team
		var pos models.Position
		var teamID sql.NullInt64
		if err := rows.Scan(
			&p.ID, &p.Callsign, &p.Status,
			&t.ID, &t.Title, &t.Active,
			&pos.ID, &pos.Title, &pos.Active, &pos.AllRangers, &pos.NewUserEligible, &teamID, &pos.TeamCategory,
		); err != nil {
			return nil, fmt.Errorf("scan team gap: %w", err)
		}
		if teamID.Valid {
			tid := id.TeamID(teamID.Int64)
			pos.TeamID = &tid
		}
		last := len(out) - 1
		if last < 0 || out[last].Person.ID != p.ID || out[last].Team.ID != t.ID {
			out = append(out, sanity.TeamGap{Person: p, Team: t})
			last++
		}
		out[last].Positions = append(out[last].Positions, pos)
	}
	return out, rows.Err()
}

func flagColumn(flag sanity.PositionFlag) string {
	if flag == sanity.FlagNewUserEligible {
		return "pos.new_user_eligible"
	}
	return "pos.all_rangers"
}

func statusArray(statuses []id.PersonStatus) any {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return pq.Array(out)
}

func positionArray(positions []id.PositionID) any {
	out := make([]int64, len(positions))
	for i, p := range positions {
		out[i] = int64(p)
	}
	return pq.Array(out)
}

func teamArray(teams []id.TeamID) any {
	out := make([]int64, len(teams))
	for i, t := range teams {
		out[i] = int64(t)
	}
	return pq.Array(out)
}
