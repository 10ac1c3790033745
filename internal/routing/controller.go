package routing

import "errors"

var chainNodes = [...]Node{NodeSource, NodeLofi, NodeReverb}

// Controller owns the effect chain topology. It keeps ChainState as the
// single source of truth and rewires the Graph with the minimal set of
// disconnect/connect calls whenever the topology changes.
//
// Controller is not safe for concurrent use; callers serialise access.
type Controller struct {
	graph    Graph
	state    ChainState
	loaded   bool
	topology Topology
}

func NewController(g Graph, state ChainState) *Controller {
	return &Controller{graph: g, state: state.Clamp()}
}

func (c *Controller) State() ChainState  { return c.state }
func (c *Controller) Topology() Topology { return c.topology }
func (c *Controller) Loaded() bool       { return c.loaded }

// SetLofiEnabled switches the filter between the slider values and the
// neutral passthrough, then re-routes.
func (c *Controller) SetLofiEnabled(on bool) {
	c.state.LofiEnabled = on
	if !c.loaded {
		return
	}
	c.pushFilter()
	c.route(false)
}

// SetLofiCutoff caches the cutoff and applies it only while lo-fi is on.
func (c *Controller) SetLofiCutoff(hz float64) {
	c.state.LofiCutoffHz = clamp(hz, MinCutoffHz, MaxCutoffHz)
	if c.loaded && c.state.LofiEnabled {
		c.pushFilter()
	}
}

// SetLofiResonance caches the resonance and applies it only while lo-fi is on.
func (c *Controller) SetLofiResonance(q float64) {
	c.state.LofiResonance = clamp(q, MinResonance, MaxResonance)
	if c.loaded && c.state.LofiEnabled {
		c.pushFilter()
	}
}

func (c *Controller) SetReverbEnabled(on bool) {
	c.state.ReverbEnabled = on
	if !c.loaded {
		return
	}
	c.route(false)
}

// SetReverbParams updates the reverb without touching the topology. While
// reverb is off the values are only cached.
func (c *Controller) SetReverbParams(mix, roomSec, decay float64) {
	c.state.ReverbMix = mix
	c.state.ReverbRoomSize = roomSec
	c.state.ReverbDecay = decay
	c.state = c.state.Clamp()
	if !c.loaded || !c.state.ReverbEnabled {
		return
	}
	c.graph.ConfigureReverb(c.state.ReverbRoomSize, c.state.ReverbDecay)
	c.graph.SetReverbMix(c.state.ReverbMix)
}

// LoadSource is called once a new source sits at the head of the graph. The
// old wiring is torn down and the current state re-applied from scratch.
func (c *Controller) LoadSource() {
	c.loaded = true
	c.pushFilter()
	c.route(true)
}

// Unload tears the chain down and stops routing until the next LoadSource.
func (c *Controller) Unload() {
	c.teardown()
	c.loaded = false
	c.topology = TopologyNone
}

func (c *Controller) pushFilter() {
	cutoff, q := c.state.FilterParams()
	c.graph.SetLofi(cutoff, q)
}

func (c *Controller) route(rebuild bool) {
	next := ComputeTopology(c.state, c.loaded)
	if rebuild {
		c.teardown()
		for _, e := range next.Edges() {
			c.graph.Connect(e.From, e.To)
		}
	} else {
		c.rewire(c.topology, next)
	}
	c.topology = next
	if next == TopologyNone {
		return
	}
	if c.state.ReverbEnabled {
		c.graph.ConfigureReverb(c.state.ReverbRoomSize, c.state.ReverbDecay)
		c.graph.SetReverbMix(c.state.ReverbMix)
	} else {
		// Detached, but its delay lines may still hold audio.
		c.graph.SetReverbMix(0)
	}
	c.graph.BindMeter(next.Terminal())
}

// rewire issues connect/disconnect calls only for nodes whose downstream
// target differs between prev and next.
func (c *Controller) rewire(prev, next Topology) {
	oldDown, newDown := prev.downstream(), next.downstream()
	for _, n := range chainNodes {
		o, hadOld := oldDown[n]
		nw, hasNew := newDown[n]
		if hadOld == hasNew && o == nw {
			continue
		}
		c.disconnect(n)
		if hasNew {
			c.graph.Connect(n, nw)
		}
	}
}

func (c *Controller) teardown() {
	for _, n := range chainNodes {
		c.disconnect(n)
	}
}

// disconnect is idempotent: tearing down an idle node is not an error.
func (c *Controller) disconnect(n Node) bool {
	err := c.graph.Disconnect(n)
	return err == nil || errors.Is(err, ErrNotConnected)
}
