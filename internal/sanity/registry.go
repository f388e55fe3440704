package sanity

import (
	"fmt"
	"sort"

	"rosterd/pkg/platform/sentinel"
)

// Registry maps check names to implementations.
type Registry struct {
	checks map[string]Check
}

// NewRegistry builds the registry with the full check set.
func NewRegistry() *Registry {
	r := &Registry{checks: make(map[string]Check)}
	r.register(
		deactivatedAccounts{},
		retiredAccounts{},
		deactivatedPositions{},
		deactivatedTeams{},
		missingPositions{},
		teamMembership{},
		teamPositions{},
		greenDot{},
		shinyPenny{},
		newManagementCheck(checkManagement),
		newManagementCheck(checkManagementOnPlaya),
		newManagementCheck(checkManagementYearRound),
		staleRole{},
	)
	return r
}

func (r *Registry) register(checks ...Check) {
	for _, c := range checks {
		if _, dup := r.checks[c.Name()]; dup {
			panic(fmt.Sprintf("duplicate sanity check %q", c.Name()))
		}
		r.checks[c.Name()] = c
	}
}

// Lookup returns the named check, or sentinel.ErrNotFound.
func (r *Registry) Lookup(name string) (Check, error) {
	c, ok := r.checks[name]
	if !ok {
		return nil, fmt.Errorf("check %q: %w", name, sentinel.ErrNotFound)
	}
	return c, nil
}

// List returns all checks sorted by name.
func (r *Registry) List() []Check {
	names := make([]string, 0, len(r.checks))
	for name := range r.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	checks := make([]Check, 0, len(names))
	for _, name := range names {
		checks = append(checks, r.checks[name])
	}
	return checks
}
