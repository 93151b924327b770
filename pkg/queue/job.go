package queue

import (
	"strconv"

	"github.com/flo1101/swgts-ingest/pkg/types"
)

// Encode flattens a Job into the ordered string list the spec's wire
// format names: enqueue timestamp, pair_count, read-pair count, chunk
// cost, session id, then every accepted pair's reads in order, each read
// as its four lines in slot order. This is the single definition of field
// order, so producers and any future consumer agree by construction.
func Encode(job *types.Job) []string {
	out := make([]string, 0, 5+job.ReadPairs*job.PairCount*4)
	out = append(out,
		strconv.FormatFloat(float64(job.EnqueuedAt.UnixNano())/1e9, 'f', -1, 64),
		strconv.Itoa(job.PairCount),
		strconv.Itoa(job.ReadPairs),
		strconv.Itoa(job.ChunkCost),
		job.SessionID.String(),
	)
	for _, pair := range job.Accepted {
		for _, read := range pair {
			lines := read.Lines()
			out = append(out, lines[0], lines[1], lines[2], lines[3])
		}
	}
	return out
}
