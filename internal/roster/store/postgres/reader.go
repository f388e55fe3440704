package postgres

import (
	"context"
	"fmt"

	"rosterd/internal/roster/models"
	id "rosterd/pkg/domain"
)

// Read-side queries for the roster API.

func (s *Store) ListPeople(ctx context.Context, status id.PersonStatus) ([]models.Person, error) {
	if status == "" {
		return s.people(ctx, `SELECT p.id, p.callsign, p.status FROM person p ORDER BY p.callsign, p.id`)
	}
	return s.people(ctx, `SELECT p.id, p.callsign, p.status FROM person p WHERE p.status = $1 ORDER BY p.callsign, p.id`, string(status))
}

func (s *Store) ListPositions(ctx context.Context) ([]models.Position, error) {
	return s.positions(ctx, `SELECT `+positionColumns+` FROM position pos ORDER BY pos.id`)
}

func (s *Store) ListTeams(ctx context.Context) ([]models.Team, error) {
	const query = `SELECT id, title, active FROM team ORDER BY id`
	rows, err := s.execer(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query teams: %w", err)
	}
	defer rows.Close()

	var out []models.Team
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(&t.ID, &t.Title, &t.Active); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) ListRoles(ctx context.Context) ([]models.Role, error) {
	return s.roles(ctx, `SELECT id, title FROM role ORDER BY id`)
}

func (s *Store) RolesHeld(ctx context.Context, pid id.PersonID) ([]models.Role, error) {
	const query = `
		SELECT r.id, r.title
		FROM person_role pr
		JOIN role r ON r.id = pr.role_id
		WHERE pr.person_id = $1
		ORDER BY r.id
	`
	return s.roles(ctx, query, int64(pid))
}

func (s *Store) TeamsFor(ctx context.Context, pid id.PersonID) ([]models.Team, error) {
	const query = `
		SELECT t.id, t.title, t.active
		FROM person_team pt
		JOIN team t ON t.id = pt.team_id
		WHERE pt.person_id = $1
		ORDER BY t.id
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, int64(pid))
	if err != nil {
		return nil, fmt.Errorf("query person teams: %w", err)
	}
	defer rows.Close()

	var out []models.Team
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(&t.ID, &t.Title, &t.Active); err != nil {
			return nil, fmt.Errorf("scan person team: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) MentorYears(ctx context.Context, pid id.PersonID) ([]int, error) {
	const query = `SELECT year FROM person_mentor_pass WHERE person_id = $1 ORDER BY year`
	rows, err := s.execer(ctx).QueryContext(ctx, query, int64(pid))
	if err != nil {
		return nil, fmt.Errorf("query mentor years: %w", err)
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var year int
		if err := rows.Scan(&year); err != nil {
			return nil, fmt.Errorf("scan mentor year: %w", err)
		}
		out = append(out, year)
	}
	return out, rows.Err()
}

func (s *Store) roles(ctx context.Context, query string, args ...any) ([]models.Role, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query roles: %w", err)
	}
	defer rows.Close()

	var out []models.Role
	for rows.Next() {
		var r models.Role
		if err := rows.Scan(&r.ID, &r.Title); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
