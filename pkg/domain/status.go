package domain

// PersonStatus is the account lifecycle state. The sanity checks key their
// eligibility rules off the status classes below, so the class slices are
// the single source of truth for "who should hold what".
type PersonStatus string

const (
	StatusActive            PersonStatus = "active"
	StatusInactive          PersonStatus = "inactive"
	StatusInactiveExtension PersonStatus = "inactive extension"
	StatusAlpha             PersonStatus = "alpha"
	StatusAuditor           PersonStatus = "auditor"
	StatusProspective       PersonStatus = "prospective"
	StatusEchelon           PersonStatus = "echelon"

	StatusBonked          PersonStatus = "bonked"
	StatusDeceased        PersonStatus = "deceased"
	StatusDismissed       PersonStatus = "dismissed"
	StatusPastProspective PersonStatus = "past prospective"
	StatusResigned        PersonStatus = "resigned"
	StatusUberbonked      PersonStatus = "uberbonked"
	StatusRetired         PersonStatus = "retired"
)

// DeactivatedStatuses are terminal states whose accounts must hold no
// positions at all. Retired is deliberately absent: retired accounts keep
// the new-user default set and have their own check.
var DeactivatedStatuses = []PersonStatus{
	StatusBonked,
	StatusDeceased,
	StatusDismissed,
	StatusPastProspective,
	StatusResigned,
	StatusUberbonked,
}

// AllRangersStatuses should hold every position flagged all_rangers.
var AllRangersStatuses = []PersonStatus{
	StatusActive,
	StatusInactive,
	StatusInactiveExtension,
	StatusEchelon,
}

// NewUserStatuses should hold every position flagged new_user_eligible.
var NewUserStatuses = []PersonStatus{
	StatusAlpha,
	StatusAuditor,
	StatusProspective,
}

// TeamCategory classifies a team-scoped position.
type TeamCategory string

const (
	// TeamCategoryPublic positions are open signups with no membership implication.
	TeamCategoryPublic TeamCategory = "public"
	// TeamCategoryAllMembers positions must be held by every team member,
	// and holding one implies membership in the team.
	TeamCategoryAllMembers TeamCategory = "all_members"
	// TeamCategoryOptional positions are held by a subset of the team.
	TeamCategoryOptional TeamCategory = "optional"
)
