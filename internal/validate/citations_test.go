package validate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapcheck/internal/kb"
	"github.com/leapstack-labs/leapcheck/pkg/core"
)

type searcherFunc func(ctx context.Context, query string, k int) ([]kb.Match, error)

func (f searcherFunc) Similar(ctx context.Context, query string, k int) ([]kb.Match, error) {
	return f(ctx, query, k)
}

func TestAttachCitations(t *testing.T) {
	findings := []core.Finding{
		{ID: core.FindingMissingSection, Message: "Missing section: Scope"},
		{ID: core.FindingPlaceholder, Message: "Placeholder detected: 'TBD'"},
	}
	var queries []string
	searcher := searcherFunc(func(_ context.Context, query string, k int) ([]kb.Match, error) {
		queries = append(queries, query)
		assert.Equal(t, 1, k)
		if query == "Missing section: Scope" {
			return []kb.Match{{Score: 0.8, Excerpt: "Every SOP defines its scope."}}, nil
		}
		return nil, nil
	})

	got := AttachCitations(context.Background(), findings, searcher)
	require.Len(t, got, 2)
	assert.Equal(t, "Every SOP defines its scope.", got[0].CitationText())
	assert.Nil(t, got[1].Citation)
	assert.Equal(t, []string{"Missing section: Scope", "Placeholder detected: 'TBD'"}, queries)
	assert.Nil(t, findings[0].Citation, "input is not modified")
}

func TestAttachCitations_Failures(t *testing.T) {
	findings := []core.Finding{
		{ID: core.FindingMissingSection, Message: "first"},
		{ID: core.FindingPlaceholder, Message: "second"},
	}
	hit := []kb.Match{{Excerpt: "cited"}}

	tests := []struct {
		name     string
		searcher kb.Searcher
	}{
		{name: "nil searcher", searcher: nil},
		{name: "error on later finding", searcher: searcherFunc(func(_ context.Context, q string, _ int) ([]kb.Match, error) {
			if q == "second" {
				return nil, errors.New("index unavailable")
			}
			return hit, nil
		})},
		{name: "panic", searcher: searcherFunc(func(context.Context, string, int) ([]kb.Match, error) {
			panic("corrupt index")
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AttachCitations(context.Background(), findings, tt.searcher)
			require.Len(t, got, 2)
			for _, f := range got {
				assert.Nil(t, f.Citation)
			}
		})
	}
}

func TestAttachCitations_Empty(t *testing.T) {
	assert.Nil(t, AttachCitations(context.Background(), nil, searcherFunc(func(context.Context, string, int) ([]kb.Match, error) {
		t.Fatal("searcher must not be called")
		return nil, nil
	})))
}
