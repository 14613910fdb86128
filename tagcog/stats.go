package tagcog

import "go.uber.org/atomic"

// Stats counts what an Aggregator has done since it was created.
type Stats struct {
	Batches         uint64
	EmptyBatches    uint64
	Accepted        uint64
	Rejected        uint64
	Published       uint64
	PublishFailures uint64
}

type counters struct {
	batches         atomic.Uint64
	emptyBatches    atomic.Uint64
	accepted        atomic.Uint64
	rejected        atomic.Uint64
	published       atomic.Uint64
	publishFailures atomic.Uint64
}

// Stats returns a snapshot of the aggregator's counters.
func (a *Aggregator) Stats() Stats {
	return Stats{
		Batches:         a.stats.batches.Load(),
		EmptyBatches:    a.stats.emptyBatches.Load(),
		Accepted:        a.stats.accepted.Load(),
		Rejected:        a.stats.rejected.Load(),
		Published:       a.stats.published.Load(),
		PublishFailures: a.stats.publishFailures.Load(),
	}
}

// Fields returns the snapshot as alternating keys and values for structured logging.
func (s Stats) Fields() []interface{} {
	return []interface{}{
		"batches", s.Batches,
		"empty_batches", s.EmptyBatches,
		"accepted", s.Accepted,
		"rejected", s.Rejected,
		"published", s.Published,
		"publish_failures", s.PublishFailures,
	}
}
