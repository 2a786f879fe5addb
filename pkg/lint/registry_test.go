package lint_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/leapstack-labs/leapcheck/pkg/lint"
)

func TestRegistry(t *testing.T) {
	lint.Clear()
	t.Cleanup(lint.Clear)

	lint.Register(lint.RuleDef{ID: "late", Group: "content", Order: 9})
	lint.Register(lint.RuleDef{ID: "early", Group: "structure", Order: 1})
	lint.Register(lint.RuleDef{ID: "middle", Group: "content", Order: 5})

	require.Equal(t, 3, lint.Count())

	var ids []core.FindingID
	for _, def := range lint.GetAll() {
		ids = append(ids, def.ID)
	}
	assert.Equal(t, []core.FindingID{"early", "middle", "late"}, ids)

	content := lint.GetByGroup("content")
	require.Len(t, content, 2)
	assert.Equal(t, core.FindingID("middle"), content[0].ID)

	def, ok := lint.GetByID("late")
	require.True(t, ok)
	assert.Equal(t, 9, def.Order)

	_, ok = lint.GetByID("missing")
	assert.False(t, ok)

	rules := lint.AllRules()
	require.Len(t, rules, 3)
	assert.Equal(t, core.FindingID("early"), rules[0].ID())

	// Re-registering an ID replaces the previous definition.
	lint.Register(lint.RuleDef{ID: "late", Order: 0})
	assert.Equal(t, 3, lint.Count())
	assert.Equal(t, core.FindingID("late"), lint.GetAll()[0].ID)

	lint.Clear()
	assert.Zero(t, lint.Count())
}

func TestFixFor(t *testing.T) {
	lint.Clear()
	t.Cleanup(lint.Clear)

	lint.Register(lint.RuleDef{ID: "placeholder", Fix: "Replace placeholders."})
	lint.Register(lint.RuleDef{ID: "bare"})

	assert.Equal(t, "Replace placeholders.", lint.FixFor("placeholder"))
	assert.Equal(t, lint.DefaultFix, lint.FixFor("bare"))
	assert.Equal(t, lint.DefaultFix, lint.FixFor(core.FindingLLM))
}
