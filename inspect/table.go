package inspect

import (
	"io"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

// WriteTable prints the report as a text table.
func WriteTable(w io.Writer, r Report) {
	s := r.Stats
	tbl := tablewriter.NewWriter(w)
	tbl.SetHeader([]string{"metric", "value"})
	for _, row := range [][2]any{
		{"trackers", s.TotalTrackers},
		{"alive", s.AliveTrackers},
		{"dependencies", s.TotalDependencies},
		{"pending", s.PendingUpdates},
		{"ledger keys", s.LedgerKeys},
		{"computed", s.ComputedEntries},
		{"containers", s.Containers},
	} {
		tbl.Append([]string{row[0].(string), humanize.Comma(int64(row[1].(int)))})
	}
	for _, slow := range r.Slow {
		tbl.Append([]string{"slow: " + slow.Name, slow.Took.String()})
	}
	tbl.Render()
}
