package inspect

import (
	"io"

	"github.com/dustin/go-humanize"
	"github.com/valyala/quicktemplate"
)

// StreamHTML writes the debug overlay fragment.
func StreamHTML(qw *quicktemplate.Writer, r Report) {
	s := r.Stats
	qw.N().S(`<div class="deepstate-debug">`)
	qw.N().S(`<div>Trackers: `)
	qw.N().D(s.AliveTrackers)
	qw.N().S(`/`)
	qw.N().D(s.TotalTrackers)
	qw.N().S(`</div><div>Dependencies: `)
	qw.N().S(humanize.Comma(int64(s.TotalDependencies)))
	qw.N().S(`</div><div>Pending: `)
	qw.N().D(s.PendingUpdates)
	qw.N().S(`</div><div>Keys: `)
	qw.N().S(humanize.Comma(int64(s.LedgerKeys)))
	qw.N().S(`</div><div>Computed: `)
	qw.N().S(humanize.Comma(int64(s.ComputedEntries)))
	qw.N().S(`</div>`)
	if len(r.Slow) > 0 {
		qw.N().S(`<ul class="slow">`)
		for _, slow := range r.Slow {
			qw.N().S(`<li>`)
			qw.E().S(slow.Name)
			qw.N().S(` `)
			qw.E().S(slow.Took.String())
			qw.N().S(`</li>`)
		}
		qw.N().S(`</ul>`)
	}
	qw.N().S(`</div>`)
}

func WriteHTML(w io.Writer, r Report) {
	qw := quicktemplate.AcquireWriter(w)
	StreamHTML(qw, r)
	quicktemplate.ReleaseWriter(qw)
}

func HTML(r Report) string {
	qb := quicktemplate.AcquireByteBuffer()
	WriteHTML(qb, r)
	out := string(qb.B)
	quicktemplate.ReleaseByteBuffer(qb)
	return out
}
