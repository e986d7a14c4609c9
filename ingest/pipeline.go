package ingest

import "sync"

// Pipeline runs received bytes through a Filter and a Framer. It owns the
// per-session filter state and partial line, both discarded by Reset.
type Pipeline struct {
	mu     sync.Mutex
	filter *Filter
	framer *Framer
}

// NewPipeline returns a pipeline delivering messages to sink
func NewPipeline(sink Sink, opts ...Option) *Pipeline {
	c := buildConfig(opts)
	return &Pipeline{
		filter: newFilter(c),
		framer: newFramer(sink, c),
	}
}

// Feed processes a chunk of received bytes. It never blocks on the sink and
// always accepts the data; overflow is accounted per message.
func (p *Pipeline) Feed(data []byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, b := range data {
		switch p.filter.Feed(b) {
		case Consume:
			p.framer.Append(b)
		case DropAndFlush:
			p.framer.Flush()
		}
	}
	return true
}

// Reset clears the filter state and discards the partial line
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.filter.Reset()
	p.framer.Reset()
}

// State returns the filter state and the length of the partial line
func (p *Pipeline) State() (FilterState, int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.filter.State(), p.framer.Len()
}

// Stats returns the framer counters
func (p *Pipeline) Stats() FramerStats {
	return p.framer.Stats()
}
