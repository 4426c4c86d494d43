package metrics

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dukex/operion-designer/pkg/editor"
	"github.com/dukex/operion-designer/pkg/graph"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Observe(t *testing.T) {
	t.Parallel()

	c := NewCollector("designer")

	c.Observe(editor.Transition{
		From:  editor.Idle(),
		To:    editor.NodeSelected("n"),
		Event: editor.ClickNode{NodeID: "n"},
	})
	c.Observe(editor.Transition{
		From:      editor.Connecting("a"),
		To:        editor.Idle(),
		Event:     editor.ClickNode{NodeID: "b"},
		Mutation:  editor.MutationAddConnection,
		CreatedID: "c1",
	})
	c.Observe(editor.Transition{
		From:     editor.NodeSelected("s"),
		To:       editor.Idle(),
		Event:    editor.DeleteCommand{},
		Mutation: editor.MutationRemoveNode,
		Err:      &graph.MutationError{Op: "RemoveNode", NodeID: "s", Err: graph.ErrProtectedNode},
	})
	c.Observe(editor.Transition{
		From:  editor.Idle(),
		To:    editor.Idle(),
		Event: editor.DropPaletteItem{},
		Err:   editor.ErrReadOnly,
	})

	assert.InDelta(t, 1, testutil.ToFloat64(c.Transitions.WithLabelValues("click_node", "idle", "node_selected")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.Transitions.WithLabelValues("click_node", "connecting", "idle")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.Mutations.WithLabelValues("add_connection", OutcomeCommitted, OutcomeNone)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.Mutations.WithLabelValues("remove_node", OutcomeRejected, "protected_node")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.Mutations.WithLabelValues("none", OutcomeRejected, "read_only")), 0)
	assert.Equal(t, 4, testutil.CollectAndCount(c.Transitions))
}

func TestReason(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{err: nil, want: ""},
		{err: editor.ErrReadOnly, want: "read_only"},
		{err: fmt.Errorf("wrap: %w", graph.ErrProtectedNode), want: "protected_node"},
		{err: &graph.MutationError{Op: "AddConnection", Err: graph.ErrDuplicateConnection}, want: "duplicate_connection"},
		{err: &graph.MutationError{Op: "RemoveNode", Err: graph.ErrNodeNotFound}, want: "not_found"},
		{err: graph.ErrConnectionNotFound, want: "not_found"},
		{err: errors.New("boom"), want: "other"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Reason(tt.err), tt.err)
	}
}

func TestCollector_Handler(t *testing.T) {
	t.Parallel()

	c := NewCollector("designer")
	c.ActiveSessions.Inc()
	c.Changes.Add(3)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "designer_sessions_active 1"), body)
	assert.True(t, strings.Contains(body, "designer_definition_changes_total 3"), body)
}
