package messenger

// BadgeCategoryMessenger is the navigation badge slot for chat threads.
// Inquiry categories get merged in next to it by the badge endpoints.
const BadgeCategoryMessenger = "messenger"

// BadgeCounts feeds the navigation badges. TotalUnreadThreads counts
// conversations, not messages: one thread with five unanswered messages is
// one unread thread.
type BadgeCounts struct {
	TotalUnreadThreads int            `json:"totalUnreadThreads"`
	PerCategory        map[string]int `json:"perCategory"`
}

// Project derives badge counts from aggregator output. Like Aggregate it is
// a pure recomputation; consumers re-run it on every snapshot.
func Project(conversations map[string]Conversation) BadgeCounts {
	unread := 0
	for _, conv := range conversations {
		if conv.HasUnread {
			unread++
		}
	}

	return BadgeCounts{
		TotalUnreadThreads: unread,
		PerCategory: map[string]int{
			BadgeCategoryMessenger: unread,
		},
	}
}

// WithCategory returns a copy with one more category count merged in. Each
// source stays independent; the combination rule is plain addition.
func (b BadgeCounts) WithCategory(name string, count int) BadgeCounts {
	merged := make(map[string]int, len(b.PerCategory)+1)
	for k, v := range b.PerCategory {
		merged[k] = v
	}
	merged[name] = count

	return BadgeCounts{
		TotalUnreadThreads: b.TotalUnreadThreads,
		PerCategory:        merged,
	}
}

// Total is the sum rendered on the collapsed sidebar badge.
func (b BadgeCounts) Total() int {
	total := 0
	for _, count := range b.PerCategory {
		total += count
	}
	return total
}
