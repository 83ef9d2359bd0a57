package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/how-als/how-als/internal/analysis"
	"github.com/how-als/how-als/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := NewJournal(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournal_RecordAndRecent(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, j.RecordAnalysis(ctx, analysis.Outcome{
		At:         base,
		Source:     "http",
		MIMEType:   "image/png",
		ByteSize:   3,
		Image:      []byte{1, 2, 3},
		Status:     analysis.OutcomeOK,
		ObjectName: "mug",
		Model:      "gemini-test",
		Duration:   1500 * time.Millisecond,
		Usage:      llm.TokenUsage{InputTokens: 100, OutputTokens: 20, TotalTokens: 120, CostUSD: 0.00011},
	}))
	require.NoError(t, j.RecordAnalysis(ctx, analysis.Outcome{
		At:       base.Add(time.Minute),
		Source:   "telegram",
		MIMEType: "image/jpeg",
		ByteSize: 2,
		Image:    []byte{9, 9},
		Status:   string(analysis.KindRateLimited),
		Duration: 200 * time.Millisecond,
	}))

	entries, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	newest, oldest := entries[0], entries[1]
	assert.Equal(t, "telegram", newest.Source)
	assert.Equal(t, string(analysis.KindRateLimited), newest.Status)
	assert.Empty(t, newest.ObjectName)
	assert.Empty(t, newest.Model)

	assert.Equal(t, "http", oldest.Source)
	assert.Equal(t, "image/png", oldest.MIMEType)
	assert.Equal(t, 3, oldest.ByteSize)
	assert.Equal(t, ImageDigest([]byte{1, 2, 3}), oldest.ImageDigest)
	assert.Equal(t, "mug", oldest.ObjectName)
	assert.Equal(t, "gemini-test", oldest.Model)
	assert.Equal(t, 1500*time.Millisecond, oldest.Duration)
	assert.Equal(t, int64(120), oldest.TotalTokens)
	assert.InDelta(t, 0.00011, oldest.CostUSD, 1e-12)
	assert.True(t, base.Equal(oldest.At), "got %s", oldest.At)

	limited, err := j.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestJournal_StatusCounts(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	for _, status := range []string{analysis.OutcomeOK, analysis.OutcomeOK, analysis.OutcomeDegraded} {
		require.NoError(t, j.RecordAnalysis(ctx, analysis.Outcome{
			At: time.Now(), Source: "cli", MIMEType: "image/gif", Status: status,
		}))
	}

	counts, err := j.StatusCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"ok": 2, "degraded": 1}, counts)
}

func TestJournal_ReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := NewJournal(path)
	require.NoError(t, err)
	require.NoError(t, j.RecordAnalysis(context.Background(), analysis.Outcome{
		At: time.Now(), Source: "http", MIMEType: "image/webp", Status: analysis.OutcomeOK,
	}))
	require.NoError(t, j.Close())

	j, err = NewJournal(path)
	require.NoError(t, err)
	defer j.Close()

	entries, err := j.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestImageDigest(t *testing.T) {
	a := ImageDigest([]byte("same"))
	assert.Len(t, a, 64)
	assert.Equal(t, a, ImageDigest([]byte("same")))
	assert.NotEqual(t, a, ImageDigest([]byte("other")))
}
