package timesheet

import (
	"sort"
	"time"
)

type itemKind uint8

const (
	itemEntry itemKind = iota
	itemExclusion
	itemRaw
)

// pendingItem is one buffered line awaiting finalization. Exactly one of the
// payload fields is meaningful, as selected by kind.
type pendingItem struct {
	kind itemKind

	entry  *Entry         // itemEntry
	format DurationFormat // itemEntry: format in effect when parsed

	exclusion Exclusion // itemExclusion
	carried   bool      // itemExclusion: already written with an earlier batch

	text   string // itemRaw
	blank  bool   // itemRaw: a preserved blank line
	dedupe bool   // itemRaw: skip when identical to the previous output line
}

// Exclusion is a marked sub-interval carved out of the duration of any entry containing it.
type Exclusion struct {
	Text  string // normalized "start, end, notes"
	Start time.Duration
	End   time.Duration
	Notes string
}

func (x Exclusion) overlaps(start, end time.Duration) bool {
	return x.Start < end && x.End > start
}

type interval struct {
	start, end time.Duration
}

// excludedWithin returns how much of [start,end) the exclusions cover, counting
// overlapping exclusions once.
func excludedWithin(start, end time.Duration, exclusions []Exclusion) time.Duration {
	var clipped []interval
	for _, x := range exclusions {
		s, e := max(x.Start, start), min(x.End, end)
		if s < e {
			clipped = append(clipped, interval{s, e})
		}
	}
	if len(clipped) == 0 {
		return 0
	}

	sort.Slice(clipped, func(i, j int) bool { return clipped[i].start < clipped[j].start })

	var total time.Duration
	cur := clipped[0]
	for _, iv := range clipped[1:] {
		if iv.start <= cur.end {
			cur.end = max(cur.end, iv.end)
			continue
		}
		total += cur.end - cur.start
		cur = iv
	}
	total += cur.end - cur.start
	return total
}

// pendingBuffer holds entries until no later line can change their duration.
type pendingBuffer struct {
	items []pendingItem
}

func (b *pendingBuffer) empty() bool {
	return len(b.items) == 0
}

func (b *pendingBuffer) push(it pendingItem) {
	b.items = append(b.items, it)
}

// split returns the items sealed by a new entry starting at start and the ones
// to keep. Kept items are the trailing run after the last buffered entry,
// beginning at the first exclusion that no buffered entry covers and that
// reaches past start: it is waiting for the new entry. Sealed exclusions that
// reach past start are also kept, marked carried, so they apply to the new
// entry without being written twice.
func (b *pendingBuffer) split(start time.Duration) (sealed, kept []pendingItem) {
	lastEntry := -1
	for i, it := range b.items {
		if it.kind == itemEntry {
			lastEntry = i
		}
	}

	cut := len(b.items)
	for i := lastEntry + 1; i < len(b.items); i++ {
		it := b.items[i]
		if it.kind != itemExclusion || it.exclusion.End <= start {
			continue
		}
		if !b.covered(it.exclusion) {
			cut = i
			break
		}
	}
	sealed = b.items[:cut]
	for _, it := range sealed {
		if it.kind == itemExclusion && it.exclusion.End > start {
			it.carried = true
			kept = append(kept, it)
		}
	}
	return sealed, append(kept, b.items[cut:]...)
}

func (b *pendingBuffer) covered(x Exclusion) bool {
	for _, it := range b.items {
		if it.kind != itemEntry || it.entry.End == nil {
			continue
		}
		if x.overlaps(it.entry.Start, *it.entry.End) {
			return true
		}
	}
	return false
}

func (b *pendingBuffer) reset(kept []pendingItem) {
	b.items = append([]pendingItem(nil), kept...)
}
