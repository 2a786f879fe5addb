package validate

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/leapcheck/internal/kb"
	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// AttachCitations returns a copy of findings with the best knowledge base
// match for each message attached as its citation.
//
// A nil searcher leaves citations unset. If any lookup fails or panics, no
// citations are attached at all.
func AttachCitations(ctx context.Context, findings []core.Finding, searcher kb.Searcher) []core.Finding {
	out, _ := attachCitations(ctx, findings, searcher)
	return out
}

// attachCitations is AttachCitations that also reports the lookup failure
// behind an uncited result.
func attachCitations(ctx context.Context, findings []core.Finding, searcher kb.Searcher) ([]core.Finding, error) {
	out := core.CloneFindings(findings)
	if searcher == nil || len(out) == 0 {
		return out, nil
	}

	citations, err := lookupCitations(ctx, out, searcher)
	if err != nil {
		return core.CloneFindings(findings), err
	}
	for i, c := range citations {
		if c != nil {
			out[i].Citation = c
		}
	}
	return out, nil
}

func lookupCitations(ctx context.Context, findings []core.Finding, searcher kb.Searcher) (citations []*string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("citation lookup panicked: %v", r)
		}
	}()

	citations = make([]*string, len(findings))
	for i, f := range findings {
		matches, err := searcher.Similar(ctx, f.Message, 1)
		if err != nil {
			return nil, err
		}
		if len(matches) > 0 {
			citations[i] = core.StringPtr(matches[0].Excerpt)
		}
	}
	return citations, nil
}
