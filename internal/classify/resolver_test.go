package classify

import (
	"testing"

	"github.com/civicgate/filingpilot/internal/extract"
	"github.com/stretchr/testify/assert"
)

func TestMatchCandidateExactBeatsPrefix(t *testing.T) {
	r := New(DefaultConfig(), nil, extract.New(), nil, nil)
	candidates := []extract.Candidate{
		{ID: "wizardForm:classTree:term:a", Label: "Leather goods, imitation"},
		{ID: "wizardForm:classTree:term:b", Label: "Leather goods"},
	}
	assert.Equal(t, "wizardForm:classTree:term:b", r.matchCandidate(candidates, "Leather goods"))
}

func TestMatchCandidatePrefixBeatsSubstring(t *testing.T) {
	r := New(DefaultConfig(), nil, extract.New(), nil, nil)
	candidates := []extract.Candidate{
		{ID: "wizardForm:classTree:term:a", Label: "Imitation leather goods"},
		{ID: "wizardForm:classTree:term:b", Label: "Leather goods, imitation"},
	}
	assert.Equal(t, "wizardForm:classTree:term:b", r.matchCandidate(candidates, "Leather goods"))
}

func TestMatchCandidateCaseInsensitiveSubstring(t *testing.T) {
	r := New(DefaultConfig(), nil, extract.New(), nil, nil)
	candidates := []extract.Candidate{
		{ID: "wizardForm:classTree:term:a", Label: "Imitation LEATHER GOODS of all kinds"},
	}
	assert.Equal(t, "wizardForm:classTree:term:a", r.matchCandidate(candidates, "leather goods"))
}

func TestMatchCandidateNoHit(t *testing.T) {
	r := New(DefaultConfig(), nil, extract.New(), nil, nil)
	candidates := []extract.Candidate{
		{ID: "wizardForm:classTree:term:a", Label: "Umbrellas"},
	}
	assert.Empty(t, r.matchCandidate(candidates, "Leather goods"))
	assert.Empty(t, r.matchCandidate(nil, "Leather goods"))
}

func TestOutcomesAreCopied(t *testing.T) {
	r := New(DefaultConfig(), nil, extract.New(), nil, nil)
	r.record(Outcome{Category: "18", Term: "Leather goods", Resolved: true, TargetID: "x"})
	r.record(Outcome{Category: "18", Term: "widgets", Resolved: false, Reason: "no selection entry matched the term"})

	outcomes := r.Outcomes()
	outcomes[0].Resolved = false
	assert.True(t, r.Outcomes()[0].Resolved)

	unresolved := r.Unresolved()
	assert.Len(t, unresolved, 1)
	assert.Equal(t, "widgets", unresolved[0].Term)

	w := unresolved[0].Warning()
	assert.Equal(t, "18", w.Category)
	assert.Equal(t, "no selection entry matched the term", w.Reason)
}
