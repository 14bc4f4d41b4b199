package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImpactParams_PersistDefaultsOn(t *testing.T) {
	var params ImpactParams
	err := json.Unmarshal([]byte(`{"oldPolicyId":"p1","newPolicyId":"p2"}`), &params)
	require.NoError(t, err)

	assert.Nil(t, params.Persist)
	assert.True(t, params.ShouldPersist(), "an omitted persist flag means persist")
}

func TestImpactParams_PersistExplicit(t *testing.T) {
	var off ImpactParams
	require.NoError(t, json.Unmarshal([]byte(`{"oldPolicyId":"p1","newPolicyId":"p2","persist":false}`), &off))
	assert.False(t, off.ShouldPersist())

	var on ImpactParams
	require.NoError(t, json.Unmarshal([]byte(`{"oldPolicyId":"p1","newPolicyId":"p2","persist":true}`), &on))
	assert.True(t, on.ShouldPersist())
}

func TestPolicyPath(t *testing.T) {
	assert.Equal(t, "policies/p1", PolicyPath("p1"))
}
