package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageMetadataMarshalFlattensExtra(t *testing.T) {
	generatedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m := MessageMetadata{
		Model:        "gpt-4o",
		InputTokens:  200,
		OutputTokens: 100,
		TotalTokens:  300,
		CostUSD:      0.0015,
		Tone:         "warm",
		Language:     "ru",
		OccasionType: "birthday",
		GeneratedAt:  &generatedAt,
		Extra: map[string]interface{}{
			"ab_test_bucket": "b",
			"model":          "spoofed", // reserved keys in Extra must not win
		},
	}

	data, err := json.Marshal(m)
	require.NoError(t, err)

	var flat map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &flat))

	assert.Equal(t, "gpt-4o", flat["model"])
	assert.Equal(t, "b", flat["ab_test_bucket"])
	assert.Equal(t, float64(300), flat["total_tokens"])
	_, nested := flat["Extra"]
	assert.False(t, nested)
}

func TestMessageMetadataRoundTripPreservesUnknownKeys(t *testing.T) {
	raw := []byte(`{
		"model": "gpt-4o",
		"total_tokens": 300,
		"fallback_used": true,
		"experiment_id": "exp-42",
		"scores": {"relevance": 0.9}
	}`)

	var m MessageMetadata
	require.NoError(t, json.Unmarshal(raw, &m))

	assert.Equal(t, "gpt-4o", m.Model)
	assert.Equal(t, 300, m.TotalTokens)
	assert.True(t, m.FallbackUsed)
	assert.Equal(t, "exp-42", m.Extra["experiment_id"])
	assert.Equal(t, map[string]interface{}{"relevance": 0.9}, m.Extra["scores"])

	out, err := json.Marshal(m)
	require.NoError(t, err)

	var m2 MessageMetadata
	require.NoError(t, json.Unmarshal(out, &m2))
	assert.Equal(t, m.Model, m2.Model)
	assert.Equal(t, m.Extra["experiment_id"], m2.Extra["experiment_id"])
}

func TestMessageMetadataScanNil(t *testing.T) {
	m := MessageMetadata{Model: "stale"}
	require.NoError(t, m.Scan(nil))
	assert.Empty(t, m.Model)
}

func TestMessageStatusTerminal(t *testing.T) {
	assert.False(t, MessageStatusDraft.Terminal())
	assert.False(t, MessageStatusPendingApproval.Terminal())
	assert.False(t, MessageStatusApproved.Terminal())
	assert.True(t, MessageStatusSent.Terminal())
	assert.True(t, MessageStatusFailed.Terminal())
	assert.True(t, MessageStatusRejected.Terminal())
}

func TestPaginationNormalize(t *testing.T) {
	p := Pagination{Skip: -5, Limit: 0}
	p.Normalize()
	assert.Equal(t, 0, p.Skip)
	assert.Equal(t, DefaultPageSize, p.Limit)

	p = Pagination{Limit: 10_000}
	p.Normalize()
	assert.Equal(t, MaxPageSize, p.Limit)
}
