package sanity_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rosterd/internal/sanity"
	"rosterd/pkg/platform/sentinel"
)

func TestRegistryCheckSet(t *testing.T) {
	registry := sanity.NewRegistry()
	checks := registry.List()

	names := make([]string, 0, len(checks))
	for _, c := range checks {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{
		"deactivated-accounts",
		"deactivated-positions",
		"deactivated-teams",
		"green-dot",
		"login-management-year-round",
		"management",
		"management-onplaya",
		"management-year-round",
		"missing-positions",
		"retired-accounts",
		"shiny-penny",
		"team-membership",
		"team-positions",
	}, names)
}

func TestRegistryLookup(t *testing.T) {
	registry := sanity.NewRegistry()

	check, err := registry.Lookup("green-dot")
	require.NoError(t, err)
	assert.Equal(t, "green-dot", check.Name())

	_, err = registry.Lookup("green dot")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sentinel.ErrNotFound))
}

func TestRegistryOptionDeclarations(t *testing.T) {
	registry := sanity.NewRegistry()

	wants := map[string]sanity.OptionKind{
		"deactivated-accounts": sanity.OptionsNone,
		"deactivated-teams":    sanity.OptionsTeamID,
		"team-membership":      sanity.OptionsPersonTeams,
		"team-positions":       sanity.OptionsPersonPositions,
	}
	for name, kind := range wants {
		check, err := registry.Lookup(name)
		require.NoError(t, err)
		assert.Equal(t, kind, check.Requires(), name)
	}
}
