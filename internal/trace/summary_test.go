package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSummarizer_DisabledWithoutAPIKey(t *testing.T) {
	s, err := NewSummarizer(SummarizerConfig{})
	require.NoError(t, err)
	assert.Nil(t, s, "summarizer must be optional: no key configured means no LLM call is ever attempted")
}
