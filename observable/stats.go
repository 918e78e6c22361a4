package observable

import (
	"cmp"
	"slices"
)

// Stats is a diagnostic snapshot. Reading it has no effect on tracking.
type Stats struct {
	TotalTrackers     int
	AliveTrackers     int
	TotalDependencies int
	PendingUpdates    int
	LedgerKeys        int
	ComputedEntries   int
	Containers        int
}

func (rt *Runtime) Stats() Stats {
	s := Stats{
		TotalTrackers:   len(rt.consumers),
		PendingUpdates:  len(rt.sched.pending),
		LedgerKeys:      rt.ledger.size(),
		ComputedEntries: rt.computed.size(),
		Containers:      rt.ids.size(),
	}
	for _, c := range rt.consumers {
		if c.Alive() {
			s.AliveTrackers++
		}
		s.TotalDependencies += c.deps.Cardinality()
	}
	return s
}

// Consumers lists the registered consumers that are not dead, oldest first.
func (rt *Runtime) Consumers() []*Consumer {
	out := make([]*Consumer, 0, len(rt.consumers))
	for _, c := range rt.consumers {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b *Consumer) int {
		return cmp.Compare(a.id, b.id)
	})
	return out
}
