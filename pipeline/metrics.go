package pipeline

import "sync/atomic"

// Counters are simple health metrics of a pipeline run.
type Counters struct {
	framesIn          atomic.Uint64 // frames pulled from Source
	framesReframed    atomic.Uint64 // frames with subject, transform computed
	framesPassthrough atomic.Uint64 // frames without subject, fill only
	framesUnconverged atomic.Uint64 // reframed frames which hit the iteration cap
	framesFallback    atomic.Uint64 // unconverged frames which could not be rendered and were fit instead
	framesOut         atomic.Uint64 // frames delivered to Sink
}

// Reset resets all metrics to zero.
func (c *Counters) Reset() {
	c.framesIn.Store(0)
	c.framesReframed.Store(0)
	c.framesPassthrough.Store(0)
	c.framesUnconverged.Store(0)
	c.framesFallback.Store(0)
	c.framesOut.Store(0)
}

// Snapshot returns a snapshot of current metrics.
func (c *Counters) Snapshot() map[string]uint64 {
	return map[string]uint64{
		"frames_in":          c.framesIn.Load(),
		"frames_reframed":    c.framesReframed.Load(),
		"frames_passthrough": c.framesPassthrough.Load(),
		"frames_unconverged": c.framesUnconverged.Load(),
		"frames_fallback":    c.framesFallback.Load(),
		"frames_out":         c.framesOut.Load(),
	}
}

func (c *Counters) incFramesIn()          { c.framesIn.Add(1) }
func (c *Counters) incFramesReframed()    { c.framesReframed.Add(1) }
func (c *Counters) incFramesPassthrough() { c.framesPassthrough.Add(1) }
func (c *Counters) incFramesUnconverged() { c.framesUnconverged.Add(1) }
func (c *Counters) incFramesFallback()    { c.framesFallback.Add(1) }
func (c *Counters) incFramesOut()         { c.framesOut.Add(1) }
