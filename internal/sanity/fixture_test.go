package sanity_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"rosterd/internal/roster/models"
	"rosterd/internal/roster/store/memory"
	"rosterd/internal/sanity"
	id "rosterd/pkg/domain"
)

// Well-known catalog ids used across the check tests.
const (
	posDirtGreenDot id.PositionID = 101
	posSanctuary    id.PositionID = 102
	posGerlachGD    id.PositionID = 103
	posShinyPenny   id.PositionID = 104

	roleManagement  id.RoleID = 201
	roleEMOnPlaya   id.RoleID = 202
	roleEMYearRound id.RoleID = 203
	roleTechTeam    id.RoleID = 204
)

type fixture struct {
	store    *memory.Store
	catalog  *sanity.Catalog
	registry *sanity.Registry
}

// newFixture builds a memory store seeded with the well-known catalog rows
// every deployment carries.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.New()
	store.PutPosition(models.Position{ID: posDirtGreenDot, Title: sanity.PositionDirtGreenDot, Active: true})
	store.PutPosition(models.Position{ID: posSanctuary, Title: sanity.PositionSanctuary, Active: true})
	store.PutPosition(models.Position{ID: posGerlachGD, Title: sanity.PositionGerlachPatrolGreenDot, Active: true})
	store.PutPosition(models.Position{ID: posShinyPenny, Title: sanity.PositionShinyPenny, Active: true})

	store.PutRole(models.Role{ID: roleManagement, Title: sanity.RoleManagementMode})
	store.PutRole(models.Role{ID: roleEMOnPlaya, Title: sanity.RoleEventManagementOnPlaya})
	store.PutRole(models.Role{ID: roleEMYearRound, Title: sanity.RoleEventManagementYearRound})
	store.PutRole(models.Role{ID: roleTechTeam, Title: sanity.RoleTechTeam})

	catalog, err := sanity.LoadCatalog(context.Background(), store)
	require.NoError(t, err)

	return &fixture{
		store:    store,
		catalog:  catalog,
		registry: sanity.NewRegistry(),
	}
}

func (f *fixture) env(year int) sanity.Env {
	return sanity.Env{Store: f.store, Catalog: f.catalog, Year: year}
}

func (f *fixture) check(t *testing.T, name string) sanity.Check {
	t.Helper()
	check, err := f.registry.Lookup(name)
	require.NoError(t, err)
	return check
}

func (f *fixture) addPerson(pid id.PersonID, callsign string, status id.PersonStatus) {
	f.store.PutPerson(models.Person{ID: pid, Callsign: callsign, Status: status})
}

func issuePersonIDs(issues []sanity.Issue) []id.PersonID {
	ids := make([]id.PersonID, 0, len(issues))
	for _, issue := range issues {
		ids = append(ids, issue.PersonID)
	}
	return ids
}
