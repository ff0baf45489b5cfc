package chat

import (
	"sort"
	"strings"
)

// Markers whose presence makes an AI turn a candidate finalized order. The
// first is the current tag convention, the second the legacy prose one. Both
// stay recognized indefinitely so historical sessions remain re-extractable.
const (
	totalMarker       = "valor_total:"
	legacyTotalMarker = "Valor Total:"
)

// GroupBySession partitions turns into per-session groups ordered by sequence
// ascending. The sort is stable, so turns with equal sequence keep their input
// order. No turn is dropped or duplicated; the input slice is not modified.
func GroupBySession(turns []Turn) map[string][]Turn {
	sessions := make(map[string][]Turn)
	for _, t := range turns {
		sessions[t.SessionID] = append(sessions[t.SessionID], t)
	}
	for id, group := range sessions {
		g := group
		sort.SliceStable(g, func(i, j int) bool { return g[i].Sequence < g[j].Sequence })
		sessions[id] = g
	}
	return sessions
}

// FindOrderTurn selects the turn representing the finalized order from one
// session's ordered turns: the last AI turn carrying a recognized total
// marker. The last one wins because it reflects any mid-conversation
// corrections. Returns false when the session holds no such turn, which means
// the conversation is not (yet) a completed order.
func FindOrderTurn(turns []Turn) (Turn, bool) {
	for i := len(turns) - 1; i >= 0; i-- {
		t := turns[i]
		if t.Role != RoleAI {
			continue
		}
		if hasTotalMarker(t.Content) {
			return t, true
		}
	}
	return Turn{}, false
}

func hasTotalMarker(content string) bool {
	return strings.Contains(strings.ToLower(content), totalMarker) ||
		strings.Contains(content, legacyTotalMarker)
}
