package report

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/xsweep/internal/types"
)

func keep(n int) []types.PostRecord {
	out := make([]types.PostRecord, n)
	for i := range out {
		out[i] = types.PostRecord{ID: fmt.Sprint(i), Text: fmt.Sprintf("kept\npost %d", i)}
	}
	return out
}

func TestNewSummaryLimitsPreviews(t *testing.T) {
	s := NewSummary("me", 10, make([]types.PostRecord, 3), keep(7), true, nil)

	assert.Equal(t, 3, s.ToDelete)
	assert.Equal(t, 7, s.Preserved)
	assert.Len(t, s.Previews, 5)
	assert.Equal(t, "kept post 0", s.Previews[0])
	assert.Equal(t, 2, s.MorePosts)
	assert.False(t, s.Incomplete)
}

func TestWriteSummary(t *testing.T) {
	b, err := New()
	require.NoError(t, err)

	var buf bytes.Buffer
	s := NewSummary("me", 8, make([]types.PostRecord, 2), keep(6), false, errors.New("status 503"))
	require.NoError(t, b.WriteSummary(&buf, s))

	out := buf.String()
	assert.Contains(t, out, "SUMMARY for @me")
	assert.Contains(t, out, "Total posts found: 8")
	assert.Contains(t, out, "Posts to DELETE: 2")
	assert.Contains(t, out, "Retweets to KEEP: 6")
	assert.Contains(t, out, "may be incomplete")
	assert.Contains(t, out, "status 503")
	assert.Contains(t, out, "  - kept post 4")
	assert.NotContains(t, out, "kept post 5")
	assert.Contains(t, out, "... and 1 more")
}

func TestWriteFinal(t *testing.T) {
	b, err := New()
	require.NoError(t, err)

	var dry bytes.Buffer
	require.NoError(t, b.WriteFinal(&dry, Final{DryRun: true, Tally: types.Tally{Deleted: 201}}))
	assert.Contains(t, dry.String(), "DRY RUN: Would have deleted 201 posts")
	assert.Contains(t, dry.String(), "COMPLETED")

	var real bytes.Buffer
	require.NoError(t, b.WriteFinal(&real, Final{Interrupted: true, Tally: types.Tally{Deleted: 4, Failed: 1, Preserved: 2}}))
	out := real.String()
	assert.Contains(t, out, "INTERRUPTED")
	assert.Contains(t, out, "Successfully deleted: 4 posts")
	assert.Contains(t, out, "Failed to delete: 1 posts")
	assert.Contains(t, out, "Preserved retweets: 2")
}

func TestBanner(t *testing.T) {
	b, err := New()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, b.Banner(&buf, true))
	assert.Contains(t, buf.String(), "DRY RUN MODE")

	buf.Reset()
	require.NoError(t, b.Banner(&buf, false))
	assert.Contains(t, buf.String(), "DELETE posts permanently")
}
