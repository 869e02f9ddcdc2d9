package trace

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrace_IDsAreMonotonicallyIncreasing(t *testing.T) {
	a := New(1)
	b := New(1)
	assert.Greater(t, b.ID, a.ID)
}

func TestTrace_AddStepAppendsInOrder(t *testing.T) {
	tr := New(100)
	tr.AddStep(KindIngress, nil)
	tr.AddStep(KindDecode, map[string]any{"pool": "abc"})

	steps := tr.Steps()
	require.Len(t, steps, 2)
	assert.Equal(t, 0, steps[0].Sequence)
	assert.Equal(t, KindIngress, steps[0].Kind)
	assert.Equal(t, 1, steps[1].Sequence)
	assert.Equal(t, "abc", steps[1].Attributes["pool"])
}

func TestTrace_DumpJSON_RelativeMsSinceFirstStep(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := base
	tr := newWithClock(7, func() time.Time { return clock })

	tr.AddStep(KindIngress, nil)
	clock = base.Add(50 * time.Millisecond)
	tr.AddStep(KindDebounce, nil)
	clock = base.Add(120 * time.Millisecond)
	tr.AddStep(KindSubmit, nil)

	raw, err := tr.DumpJSON()
	require.NoError(t, err)

	var parsed struct {
		ID    uint64 `json:"id"`
		Slot  uint64 `json:"slot"`
		Steps []struct {
			Sequence   int    `json:"sequence"`
			Kind       string `json:"kind"`
			RelativeMs int64  `json:"relative_ms"`
		} `json:"steps"`
	}
	require.NoError(t, json.Unmarshal(raw, &parsed))

	assert.Equal(t, uint64(7), parsed.Slot)
	require.Len(t, parsed.Steps, 3)
	assert.Equal(t, int64(0), parsed.Steps[0].RelativeMs)
	assert.Equal(t, int64(50), parsed.Steps[1].RelativeMs)
	assert.Equal(t, int64(120), parsed.Steps[2].RelativeMs)
}

func TestTrace_DumpJSON_EmptyTraceHasNoSteps(t *testing.T) {
	tr := New(1)
	raw, err := tr.DumpJSON()
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"steps":[]`)
}
