// Package memory provides an in-memory roster store for tests and local
// development. It implements the same contract as the postgres store with
// maps and loops instead of joins.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"rosterd/internal/roster/models"
	"rosterd/internal/sanity"
	id "rosterd/pkg/domain"
	"rosterd/pkg/platform/sentinel"
)

// Store keeps the whole roster in maps guarded by one RWMutex. Association
// sets are map[…]bool so inserts are naturally idempotent.
type Store struct {
	mu sync.RWMutex

	people    map[id.PersonID]models.Person
	positions map[id.PositionID]models.Position
	roles     map[id.RoleID]models.Role
	teams     map[id.TeamID]models.Team

	personPositions map[id.PersonID]map[id.PositionID]bool
	personRoles     map[id.PersonID]map[id.RoleID]bool
	personTeams     map[id.PersonID]map[id.TeamID]bool
	positionRoles   map[id.PositionID]map[id.RoleID]bool
	teamRoles       map[id.TeamID]map[id.RoleID]bool

	mentorPasses map[id.PersonID][]int
}

func New() *Store {
	return &Store{
		people:          make(map[id.PersonID]models.Person),
		positions:       make(map[id.PositionID]models.Position),
		roles:           make(map[id.RoleID]models.Role),
		teams:           make(map[id.TeamID]models.Team),
		personPositions: make(map[id.PersonID]map[id.PositionID]bool),
		personRoles:     make(map[id.PersonID]map[id.RoleID]bool),
		personTeams:     make(map[id.PersonID]map[id.TeamID]bool),
		positionRoles:   make(map[id.PositionID]map[id.RoleID]bool),
		teamRoles:       make(map[id.TeamID]map[id.RoleID]bool),
		mentorPasses:    make(map[id.PersonID][]int),
	}
}

// --- seeding (tests and development) ---

func (s *Store) PutPerson(p models.Person) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.people[p.ID] = p
}

func (s *Store) PutPosition(p models.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[p.ID] = p
}

func (s *Store) PutRole(r models.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles[r.ID] = r
}

func (s *Store) PutTeam(t models.Team) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teams[t.ID] = t
}

func (s *Store) LinkPositionRole(posID id.PositionID, rid id.RoleID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.positionRoles[posID] == nil {
		s.positionRoles[posID] = make(map[id.RoleID]bool)
	}
	s.positionRoles[posID][rid] = true
}

func (s *Store) LinkTeamRole(tid id.TeamID, rid id.RoleID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.teamRoles[tid] == nil {
		s.teamRoles[tid] = make(map[id.RoleID]bool)
	}
	s.teamRoles[tid][rid] = true
}

func (s *Store) AddMentorPass(pid id.PersonID, year int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mentorPasses[pid] = append(s.mentorPasses[pid], year)
}

// --- lookups ---

func (s *Store) PersonByID(_ context.Context, pid id.PersonID) (*models.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.people[pid]
	if !ok {
		return nil, fmt.Errorf("person %d: %w", pid, sentinel.ErrNotFound)
	}
	return &p, nil
}

func (s *Store) TeamByID(_ context.Context, tid id.TeamID) (*models.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.teams[tid]
	if !ok {
		return nil, fmt.Errorf("team %d: %w", tid, sentinel.ErrNotFound)
	}
	return &t, nil
}

func (s *Store) PositionByID(_ context.Context, posID id.PositionID) (*models.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.positions[posID]
	if !ok {
		return nil, fmt.Errorf("position %d: %w", posID, sentinel.ErrNotFound)
	}
	return &p, nil
}

func (s *Store) PositionByTitle(_ context.Context, title string) (*models.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.positions {
		if strings.EqualFold(p.Title, title) {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("position %q: %w", title, sentinel.ErrNotFound)
}

func (s *Store) RoleByTitle(_ context.Context, title string) (*models.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.roles {
		if strings.EqualFold(r.Title, title) {
			return &r, nil
		}
	}
	return nil, fmt.Errorf("role %q: %w", title, sentinel.ErrNotFound)
}

func (s *Store) PositionsHeld(_ context.Context, pid id.PersonID) ([]models.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.positionsHeldLocked(pid), nil
}

func (s *Store) positionsHeldLocked(pid id.PersonID) []models.Position {
	var out []models.Position
	for posID := range s.personPositions[pid] {
		out = append(out, s.positions[posID])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) PositionsByFlag(_ context.Context, flag sanity.PositionFlag) ([]models.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Position
	for _, p := range s.positions {
		if !p.Active {
			continue
		}
		if (flag == sanity.FlagAllRangers && p.AllRangers) ||
			(flag == sanity.FlagNewUserEligible && p.NewUserEligible) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) HasRole(_ context.Context, pid id.PersonID, rid id.RoleID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.personRoles[pid][rid], nil
}

// --- detection queries ---

func (s *Store) PeopleHoldingPositions(_ context.Context, statuses []id.PersonStatus) ([]sanity.PersonPositions, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wanted := statusSet(statuses)
	var out []sanity.PersonPositions
	for pid, held := range s.personPositions {
		if len(held) == 0 {
			continue
		}
		person, ok := s.people[pid]
		if !ok || !wanted[person.Status] {
			continue
		}
		out = append(out, sanity.PersonPositions{
			Person:    person,
			Positions: s.positionsHeldLocked(pid),
		})
	}
	sortByCallsign(out)
	return out, nil
}

func (s *Store) InactivePositionHolders(_ context.Context) ([]sanity.PersonPositions, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []sanity.PersonPositions
	for pid, held := range s.personPositions {
		var inactive []models.Position
		for posID := range held {
			if p := s.positions[posID]; !p.Active {
				inactive = append(inactive, p)
			}
		}
		if len(inactive) == 0 {
			continue
		}
		sort.Slice(inactive, func(i, j int) bool { return inactive[i].ID < inactive[j].ID })
		out = append(out, sanity.PersonPositions{Person: s.people[pid], Positions: inactive})
	}
	sortByCallsign(out)
	return out, nil
}

func (s *Store) InactiveTeamsWithMembers(_ context.Context) ([]sanity.TeamMembers, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	members := make(map[id.TeamID][]models.Person)
	for pid, teams := range s.personTeams {
		for tid := range teams {
			if team, ok := s.teams[tid]; ok && !team.Active {
				members[tid] = append(members[tid], s.people[pid])
			}
		}
	}
	var out []sanity.TeamMembers
	for tid, people := range members {
		sort.Slice(people, func(i, j int) bool { return people[i].Callsign < people[j].Callsign })
		out = append(out, sanity.TeamMembers{Team: s.teams[tid], Members: people})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Team.Title < out[j].Team.Title })
	return out, nil
}

func (s *Store) EligiblePeopleMissingPositions(_ context.Context, statuses []id.PersonStatus, flag sanity.PositionFlag) ([]sanity.PersonPositions, error) {
	candidates, err := s.PositionsByFlag(nil, flag)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	wanted := statusSet(statuses)
	var out []sanity.PersonPositions
	for pid, person := range s.people {
		if !wanted[person.Status] {
			continue
		}
		held := s.personPositions[pid]
		var missing []models.Position
		for _, p := range candidates {
			if !held[p.ID] {
				missing = append(missing, p)
			}
		}
		if len(missing) > 0 {
			out = append(out, sanity.PersonPositions{Person: person, Positions: missing})
		}
	}
	sortByCallsign(out)
	return out, nil
}

func (s *Store) AllMembersHoldersWithoutMembership(_ context.Context) ([]sanity.TeamGap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []sanity.TeamGap
	for pid, held := range s.personPositions {
		byTeam := make(map[id.TeamID][]models.Position)
		for posID := range held {
			p := s.positions[posID]
			if p.TeamID == nil || p.TeamCategory != id.TeamCategoryAllMembers {
				continue
			}
			if !s.personTeams[pid][*p.TeamID] {
				byTeam[*p.TeamID] = append(byTeam[*p.TeamID], p)
			}
		}
		for tid, positions := range byTeam {
			sort.Slice(positions, func(i, j int) bool { return positions[i].ID < positions[j].ID })
			out = append(out, sanity.TeamGap{Person: s.people[pid], Team: s.teams[tid], Positions: positions})
		}
	}
	sortGaps(out)
	return out, nil
}

func (s *Store) MembersMissingAllMembersPositions(_ context.Context) ([]sanity.TeamGap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	required := make(map[id.TeamID][]models.Position)
	for _, p := range s.positions {
		if p.TeamID != nil && p.TeamCategory == id.TeamCategoryAllMembers && p.Active {
			required[*p.TeamID] = append(required[*p.TeamID], p)
		}
	}

	var out []sanity.TeamGap
	for pid, teams := range s.personTeams {
		for tid := range teams {
			var missing []models.Position
			for _, p := range required[tid] {
				if !s.personPositions[pid][p.ID] {
					missing = append(missing, p)
				}
			}
			if len(missing) > 0 {
				sort.Slice(missing, func(i, j int) bool { return missing[i].ID < missing[j].ID })
				out = append(out, sanity.TeamGap{Person: s.people[pid], Team: s.teams[tid], Positions: missing})
			}
		}
	}
	sortGaps(out)
	return out, nil
}

func (s *Store) HoldersAmong(_ context.Context, positions []id.PositionID) ([]sanity.PersonPositions, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []sanity.PersonPositions
	for pid, held := range s.personPositions {
		var subset []models.Position
		for _, posID := range positions {
			if held[posID] {
				subset = append(subset, s.positions[posID])
			}
		}
		if len(subset) > 0 {
			out = append(out, sanity.PersonPositions{Person: s.people[pid], Positions: subset})
		}
	}
	sortByCallsign(out)
	return out, nil
}

func (s *Store) LatestMentorPassYear(_ context.Context, pid id.PersonID) (int, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	years := s.mentorPasses[pid]
	if len(years) == 0 {
		return 0, false, nil
	}
	latest := years[0]
	for _, y := range years[1:] {
		if y > latest {
			latest = y
		}
	}
	return latest, true, nil
}

func (s *Store) PeopleWithMentorPassIn(_ context.Context, year int) ([]models.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Person
	for pid, years := range s.mentorPasses {
		latest := 0
		for _, y := range years {
			if y > latest {
				latest = y
			}
		}
		if latest == year {
			out = append(out, s.people[pid])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Callsign < out[j].Callsign })
	return out, nil
}

func (s *Store) QualifiedMissingRole(_ context.Context, rid id.RoleID, ignore id.RoleID) ([]sanity.PersonPositions, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []sanity.PersonPositions
	for pid, held := range s.personPositions {
		if s.personRoles[pid][rid] {
			continue
		}
		if !ignore.IsZero() && s.personRoles[pid][ignore] {
			continue
		}
		var qualifying []models.Position
		for posID := range held {
			if s.positionRoles[posID][rid] {
				qualifying = append(qualifying, s.positions[posID])
			}
		}
		if len(qualifying) > 0 {
			sort.Slice(qualifying, func(i, j int) bool { return qualifying[i].ID < qualifying[j].ID })
			out = append(out, sanity.PersonPositions{Person: s.people[pid], Positions: qualifying})
		}
	}
	sortByCallsign(out)
	return out, nil
}

func (s *Store) StaleRoleHolders(_ context.Context, rid id.RoleID) ([]models.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Person
	for pid, roles := range s.personRoles {
		if !roles[rid] {
			continue
		}
		if s.qualifiesLocked(pid, rid) {
			continue
		}
		out = append(out, s.people[pid])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Callsign < out[j].Callsign })
	return out, nil
}

func (s *Store) QualifiesForRole(_ context.Context, pid id.PersonID, rid id.RoleID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.qualifiesLocked(pid, rid), nil
}

func (s *Store) qualifiesLocked(pid id.PersonID, rid id.RoleID) bool {
	for posID := range s.personPositions[pid] {
		if s.positionRoles[posID][rid] {
			return true
		}
	}
	for tid := range s.personTeams[pid] {
		if s.teamRoles[tid][rid] {
			return true
		}
	}
	return false
}

// --- mutations ---

func (s *Store) GrantPositions(_ context.Context, pid id.PersonID, positions []id.PositionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.personPositions[pid] == nil {
		s.personPositions[pid] = make(map[id.PositionID]bool)
	}
	for _, posID := range positions {
		s.personPositions[pid][posID] = true
	}
	return nil
}

func (s *Store) RevokePositions(_ context.Context, pid id.PersonID, positions []id.PositionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, posID := range positions {
		delete(s.personPositions[pid], posID)
	}
	return nil
}

func (s *Store) RevokeAllPositions(_ context.Context, pid id.PersonID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.personPositions, pid)
	return nil
}

func (s *Store) AddTeamMemberships(_ context.Context, pid id.PersonID, teams []id.TeamID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.personTeams[pid] == nil {
		s.personTeams[pid] = make(map[id.TeamID]bool)
	}
	for _, tid := range teams {
		s.personTeams[pid][tid] = true
	}
	return nil
}

func (s *Store) RemoveTeamMembership(_ context.Context, pid id.PersonID, tid id.TeamID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.personTeams[pid], tid)
	return nil
}

func (s *Store) GrantRole(_ context.Context, pid id.PersonID, rid id.RoleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.personRoles[pid] == nil {
		s.personRoles[pid] = make(map[id.RoleID]bool)
	}
	s.personRoles[pid][rid] = true
	return nil
}

func (s *Store) RevokeRole(_ context.Context, pid id.PersonID, rid id.RoleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.personRoles[pid], rid)
	return nil
}

// WithinTx runs fn directly. Each individual mutation is atomic under the
// store mutex, which is enough for tests; real transactional grouping lives
// in the postgres store.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// --- helpers ---

func statusSet(statuses []id.PersonStatus) map[id.PersonStatus]bool {
	set := make(map[id.PersonStatus]bool, len(statuses))
	for _, s := range statuses {
		set[s] = true
	}
	return set
}

func sortByCallsign(rows []sanity.PersonPositions) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].Person.Callsign < rows[j].Person.Callsign })
}

func sortGaps(gaps []sanity.TeamGap) {
	sort.Slice(gaps, func(i, j int) bool {
		if gaps[i].Person.Callsign != gaps[j].Person.Callsign {
			return gaps[i].Person.Callsign < gaps[j].Person.Callsign
		}
		return gaps[i].Team.Title < gaps[j].Team.Title
	})
}
