package sanity

import (
	"sort"
	"strings"

	"rosterd/internal/roster/models"
	id "rosterd/pkg/domain"
)

func personIssue(p models.Person) Issue {
	return Issue{PersonID: p.ID, Callsign: p.Callsign, Status: p.Status}
}

func sortIssuesByCallsign(issues []Issue) {
	sort.Slice(issues, func(i, j int) bool {
		ci := strings.ToLower(issues[i].Callsign)
		cj := strings.ToLower(issues[j].Callsign)
		if ci != cj {
			return ci < cj
		}
		return issues[i].PersonID < issues[j].PersonID
	})
}

func sortPositionsByTitle(positions []models.Position) {
	sort.Slice(positions, func(i, j int) bool {
		return positions[i].Title < positions[j].Title
	})
}

func positionIDSet(positions []models.Position) map[id.PositionID]bool {
	set := make(map[id.PositionID]bool, len(positions))
	for _, p := range positions {
		set[p.ID] = true
	}
	return set
}
