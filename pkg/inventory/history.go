package inventory

import (
	"time"

	"github.com/samber/lo"
)

// DefaultHistoryCapacity is the number of undo snapshots kept
const DefaultHistoryCapacity = 20

// history is a bounded LIFO stack of snapshots
// 上限付きのスナップショットスタック
type history struct {
	entries  []HistorySnapshot
	capacity int
}

func newHistory(capacity int) *history {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &history{capacity: capacity}
}

// push adds a snapshot, discarding the oldest beyond capacity
func (h *history) push(s HistorySnapshot) {
	h.entries = append(h.entries, s)
	if len(h.entries) > h.capacity {
		h.entries = h.entries[len(h.entries)-h.capacity:]
	}
}

// pop removes and returns the most recent snapshot
func (h *history) pop() (HistorySnapshot, bool) {
	if len(h.entries) == 0 {
		return HistorySnapshot{}, false
	}
	last := h.entries[len(h.entries)-1]
	h.entries = h.entries[:len(h.entries)-1]
	return last, true
}

func (h *history) len() int {
	return len(h.entries)
}

// newSnapshot deep-copies the given collections
// コレクションをディープコピーしてスナップショットを作成
func newSnapshot(products []Product, batches []Batch, at time.Time) HistorySnapshot {
	return HistorySnapshot{
		Products:  lo.Map(products, func(p Product, _ int) Product { return p.Clone() }),
		Batches:   lo.Map(batches, func(b Batch, _ int) Batch { return b.Clone() }),
		CreatedAt: at,
	}
}
