package sanity

import (
	"context"
	"fmt"

	"rosterd/internal/roster/models"
)

// Well-known titles the year- and set-sensitive checks key off. The rows are
// data, so the ids are resolved at startup rather than hard-coded.
const (
	PositionDirtGreenDot          = "Dirt Green Dot"
	PositionSanctuary             = "Sanctuary"
	PositionGerlachPatrolGreenDot = "Gerlach Patrol - Green Dot"
	PositionShinyPenny            = "Shiny Penny"

	RoleManagementMode           = "Management Mode"
	RoleEventManagementOnPlaya   = "Event Management On Playa"
	RoleEventManagementYearRound = "Event Management Year Round"
	RoleTechTeam                 = "Tech Team"
)

// Catalog holds the resolved well-known positions and roles.
type Catalog struct {
	DirtGreenDot          models.Position
	Sanctuary             models.Position
	GerlachPatrolGreenDot models.Position
	ShinyPenny            models.Position

	ManagementMode           models.Role
	EventManagementOnPlaya   models.Role
	EventManagementYearRound models.Role
	TechTeam                 models.Role
}

// LoadCatalog resolves the well-known rows by title. A missing row is a
// deployment error, reported with the offending title.
func LoadCatalog(ctx context.Context, store Store) (*Catalog, error) {
	c := &Catalog{}

	for _, p := range []struct {
		title string
		dst   *models.Position
	}{
		{PositionDirtGreenDot, &c.DirtGreenDot},
		{PositionSanctuary, &c.Sanctuary},
		{PositionGerlachPatrolGreenDot, &c.GerlachPatrolGreenDot},
		{PositionShinyPenny, &c.ShinyPenny},
	} {
		pos, err := store.PositionByTitle(ctx, p.title)
		if err != nil {
			return nil, fmt.Errorf("resolve position %q: %w", p.title, err)
		}
		*p.dst = *pos
	}

	for _, r := range []struct {
		title string
		dst   *models.Role
	}{
		{RoleManagementMode, &c.ManagementMode},
		{RoleEventManagementOnPlaya, &c.EventManagementOnPlaya},
		{RoleEventManagementYearRound, &c.EventManagementYearRound},
		{RoleTechTeam, &c.TechTeam},
	} {
		role, err := store.RoleByTitle(ctx, r.title)
		if err != nil {
			return nil, fmt.Errorf("resolve role %q: %w", r.title, err)
		}
		*r.dst = *role
	}

	return c, nil
}
