package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wwcp/types"
)

func TestParseIDsTrimAndRejectEmpty(t *testing.T) {
	evse, err := types.ParseEvseID(" DE*GEF*E1 ")
	require.NoError(t, err)
	assert.Equal(t, types.EvseID("DE*GEF*E1"), evse)

	provider, err := types.ParseProviderID("DE-GDF")
	require.NoError(t, err)
	assert.Equal(t, types.ProviderID("DE-GDF"), provider)

	grid, err := types.ParseGridOperatorID("DE*GRID")
	require.NoError(t, err)
	assert.Equal(t, types.GridOperatorID("DE*GRID"), grid)

	_, err = types.ParseStationID("")
	assert.Error(t, err)
	_, err = types.ParsePoolID("   ")
	assert.Error(t, err)
	_, err = types.ParseOperatorID("")
	assert.Error(t, err)
	_, err = types.ParseNetworkID("")
	assert.Error(t, err)
	_, err = types.ParseProviderID("")
	assert.Error(t, err)
	_, err = types.ParseGridOperatorID(" ")
	assert.Error(t, err)
}

func TestIDComparisonFoldsCase(t *testing.T) {
	assert.True(t, types.SameID(types.EvseID("DE*GEF*E1"), types.EvseID("de*gef*e1")))
	assert.False(t, types.SameID(types.EvseID("DE*GEF*E1"), types.EvseID("DE*GEF*E2")))
	assert.Equal(t, 0, types.CompareID(types.StationID("DE*GEF*S1"), types.StationID("de*gef*s1")))
	assert.Equal(t, "de*gef*s1", types.Key(types.StationID("DE*GEF*S1")))
}
