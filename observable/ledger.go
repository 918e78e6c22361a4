package observable

import (
	"cmp"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
)

// ledger maps every property key to the consumers that read it during
// their last evaluation. Keys with no consumers are not kept.
type ledger struct {
	entries map[PropertyKey]mapset.Set[*Consumer]
}

func newLedger() *ledger {
	return &ledger{entries: map[PropertyKey]mapset.Set[*Consumer]{}}
}

func (l *ledger) add(key PropertyKey, c *Consumer) {
	subs, ok := l.entries[key]
	if !ok {
		subs = mapset.NewThreadUnsafeSet[*Consumer]()
		l.entries[key] = subs
	}
	subs.Add(c)
}

func (l *ledger) remove(key PropertyKey, c *Consumer) {
	subs, ok := l.entries[key]
	if !ok {
		return
	}
	subs.Remove(c)
	if subs.Cardinality() == 0 {
		delete(l.entries, key)
	}
}

// purge drops c from every key it is listed under.
func (l *ledger) purge(c *Consumer, keys mapset.Set[PropertyKey]) {
	keys.Each(func(key PropertyKey) bool {
		l.remove(key, c)
		return false
	})
}

// subscribers returns a snapshot ordered by consumer id, so notification
// order is stable from run to run.
func (l *ledger) subscribers(key PropertyKey) []*Consumer {
	subs, ok := l.entries[key]
	if !ok {
		return nil
	}
	out := subs.ToSlice()
	slices.SortFunc(out, func(a, b *Consumer) int {
		return cmp.Compare(a.id, b.id)
	})
	return out
}

func (l *ledger) size() int {
	return len(l.entries)
}
