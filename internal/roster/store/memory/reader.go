package memory

import (
	"context"
	"sort"

	"rosterd/internal/roster/models"
	id "rosterd/pkg/domain"
)

// Read-side queries for the roster API. The sanity contract lives in
// memory.go; these only serve listings and the person detail page.

func (s *Store) ListPeople(_ context.Context, status id.PersonStatus) ([]models.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Person
	for _, p := range s.people {
		if status != "" && p.Status != status {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Callsign < out[j].Callsign })
	return out, nil
}

func (s *Store) ListPositions(_ context.Context) ([]models.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Position, 0, len(s.positions))
	for _, p := range s.positions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListTeams(_ context.Context) ([]models.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Team, 0, len(s.teams))
	for _, t := range s.teams {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListRoles(_ context.Context) ([]models.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Role, 0, len(s.roles))
	for _, r := range s.roles {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) RolesHeld(_ context.Context, pid id.PersonID) ([]models.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Role
	for rid := range s.personRoles[pid] {
		out = append(out, s.roles[rid])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) TeamsFor(_ context.Context, pid id.PersonID) ([]models.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Team
	for tid := range s.personTeams[pid] {
		out = append(out, s.teams[tid])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) MentorYears(_ context.Context, pid id.PersonID) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]int{}, s.mentorPasses[pid]...)
	sort.Ints(out)
	return out, nil
}
