package main

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"text/tabwriter"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jgirmay/gaia-recall/internal/common/errors"
	"github.com/jgirmay/gaia-recall/internal/recall/queue"
)

func TestRenderFormats(t *testing.T) {
	l := queue.Load{DueNow: 2, TotalItems: 5, RecommendedTimeMinutes: 4}
	table := func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "due now\t%d\n", l.DueNow)
	}

	var buf bytes.Buffer
	require.NoError(t, renderTo(&buf, "json", l, table))
	assert.Contains(t, buf.String(), `"due_now": 2`)

	buf.Reset()
	require.NoError(t, renderTo(&buf, "yaml", l, table))
	assert.Contains(t, buf.String(), "due_now: 2\n")
	assert.Contains(t, buf.String(), "recommended_time_minutes: 4\n")

	buf.Reset()
	require.NoError(t, renderTo(&buf, "table", l, table))
	assert.Equal(t, "due now  2\n", buf.String())

	err := renderTo(&buf, "xml", l, table)
	assert.True(t, errors.Is(err, apperrors.ErrBadRequest))
}

func TestRequireUser(t *testing.T) {
	prev := userID
	t.Cleanup(func() { userID = prev })

	userID = 0
	assert.True(t, errors.Is(requireUser(), apperrors.ErrBadRequest))
	userID = 7
	assert.NoError(t, requireUser())
}

func TestSortedKeys(t *testing.T) {
	assert.Equal(t, []string{"bronze", "gold", "silver"}, sortedKeys(map[string]int{"silver": 1, "bronze": 0, "gold": 2}))
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"migrate", "review", "preview", "attempt", "due", "load", "mastery", "points", "reset-stale", "project", "stats", "gate", "doctor", "overview", "velocity", "items", "inspect", "plan"} {
		assert.True(t, names[want], want)
	}
}
