// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdflayers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sassoftware/viya-pdf-layers/logger"
)

func TestStateTracker(t *testing.T) {
	combos := []Combination{{"A", "A1"}, {"A", "A2"}, {"B"}}
	st := NewStateTracker(combos, logger.Nop())

	assert.Equal(t, []bool{true, true, true}, st.Active(), "empty stack shows everything")

	st.Activate(Scope{OCG: "A", Tagged: true})
	assert.Equal(t, []bool{true, true, false}, st.Active())

	st.Activate(Scope{OCG: "A2", Tagged: true})
	assert.Equal(t, []bool{false, true, false}, st.Active())
	assert.Equal(t, 2, st.Depth())

	st.Activate(Scope{})
	assert.Equal(t, []bool{false, true, false}, st.Active(), "untagged scope changes nothing")

	require.NoError(t, st.Deactivate())
	require.NoError(t, st.Deactivate())
	assert.True(t, st.Status(0))
	assert.False(t, st.Status(2))

	require.NoError(t, st.Deactivate())
	assert.Equal(t, []bool{true, true, true}, st.Active())

	err := st.Deactivate()
	assert.ErrorIs(t, err, ErrUnbalancedMarkedContent)
}

func TestStateTracker_UnknownLayer(t *testing.T) {
	st := NewStateTracker([]Combination{{"A"}, {"B"}}, logger.Nop())
	st.Activate(Scope{OCG: "MC0", Tagged: true})
	assert.Equal(t, []bool{false, false}, st.Active())
}

func TestStateTracker_Reset(t *testing.T) {
	st := NewStateTracker([]Combination{{"A"}, {"B"}}, nil)
	st.Activate(Scope{OCG: "A", Tagged: true})
	st.Activate(Scope{OCG: "A", Tagged: true})
	st.Reset()
	assert.Equal(t, 0, st.Depth())
	assert.Equal(t, []bool{true, true}, st.Active())
}

func TestStateTracker_NoCombinations(t *testing.T) {
	st := NewStateTracker(nil, nil)
	st.Activate(Scope{OCG: "A", Tagged: true})
	assert.Empty(t, st.Active())
	assert.NoError(t, st.Deactivate())
}
