// Package service provides the read-only roster surface: listings and the
// person detail view the sanity dashboard links to.
package service

import (
	"context"
	"errors"

	"rosterd/internal/roster/models"
	id "rosterd/pkg/domain"
	derrors "rosterd/pkg/domain-errors"
	"rosterd/pkg/platform/sentinel"
)

// Reader is the store surface the roster API reads from.
type Reader interface {
	PersonByID(ctx context.Context, pid id.PersonID) (*models.Person, error)
	PositionsHeld(ctx context.Context, pid id.PersonID) ([]models.Position, error)
	RolesHeld(ctx context.Context, pid id.PersonID) ([]models.Role, error)
	TeamsFor(ctx context.Context, pid id.PersonID) ([]models.Team, error)
	MentorYears(ctx context.Context, pid id.PersonID) ([]int, error)
	ListPeople(ctx context.Context, status id.PersonStatus) ([]models.Person, error)
	ListPositions(ctx context.Context) ([]models.Position, error)
	ListTeams(ctx context.Context) ([]models.Team, error)
	ListRoles(ctx context.Context) ([]models.Role, error)
}

type Service struct {
	store Reader
}

func New(store Reader) *Service {
	return &Service{store: store}
}

// PersonDetail aggregates everything the roster holds about one person.
type PersonDetail struct {
	Person      models.Person     `json:"person"`
	Positions   []models.Position `json:"positions"`
	Roles       []models.Role     `json:"roles"`
	Teams       []models.Team     `json:"teams"`
	MentorYears []int             `json:"mentor_years"`
}

func (s *Service) Person(ctx context.Context, pid id.PersonID) (*PersonDetail, error) {
	person, err := s.store.PersonByID(ctx, pid)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, derrors.Wrap(err, derrors.CodeNotFound, "person %d not found", pid)
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "load person %d", pid)
	}

	detail := &PersonDetail{Person: *person}
	if detail.Positions, err = s.store.PositionsHeld(ctx, pid); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "load positions for person %d", pid)
	}
	if detail.Roles, err = s.store.RolesHeld(ctx, pid); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "load roles for person %d", pid)
	}
	if detail.Teams, err = s.store.TeamsFor(ctx, pid); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "load teams for person %d", pid)
	}
	if detail.MentorYears, err = s.store.MentorYears(ctx, pid); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "load mentor history for person %d", pid)
	}
	return detail, nil
}

func (s *Service) People(ctx context.Context, status id.PersonStatus) ([]models.Person, error) {
	people, err := s.store.ListPeople(ctx, status)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "list people")
	}
	return people, nil
}

func (s *Service) Positions(ctx context.Context) ([]models.Position, error) {
	positions, err := s.store.ListPositions(ctx)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "list positions")
	}
	return positions, nil
}

func (s *Service) Teams(ctx context.Context) ([]models.Team, error) {
	teams, err := s.store.ListTeams(ctx)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "list teams")
	}
	return teams, nil
}

func (s *Service) Roles(ctx context.Context) ([]models.Role, error) {
	roles, err := s.store.ListRoles(ctx)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "list roles")
	}
	return roles, nil
}
