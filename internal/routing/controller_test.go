package routing

import (
	"math"
	"testing"
)

// fakeGraph records wiring like a real backend would and fails the test on
// duplicate connections.
type fakeGraph struct {
	t           *testing.T
	edges       map[Node]map[Node]bool
	meter       Node
	meterBinds  int
	connects    int
	disconnects int
	notConn     int
	cutoff, res float64
	room, decay float64
	mix         float64
	configures  int
}

func newFakeGraph(t *testing.T) *fakeGraph {
	return &fakeGraph{t: t, edges: make(map[Node]map[Node]bool), meter: -1}
}

func (g *fakeGraph) Connect(from, to Node) {
	g.connects++
	if g.edges[from] == nil {
		g.edges[from] = make(map[Node]bool)
	}
	if g.edges[from][to] {
		g.t.Fatalf("duplicate connection %v->%v", from, to)
	}
	g.edges[from][to] = true
}

func (g *fakeGraph) Disconnect(from Node) error {
	if len(g.edges[from]) == 0 {
		g.notConn++
		return ErrNotConnected
	}
	g.disconnects++
	delete(g.edges, from)
	return nil
}

func (g *fakeGraph) BindMeter(n Node) {
	g.meter = n
	g.meterBinds++
}

func (g *fakeGraph) SetLofi(cutoff, res float64) { g.cutoff, g.res = cutoff, res }

func (g *fakeGraph) ConfigureReverb(room, decay float64) {
	g.room, g.decay = room, decay
	g.configures++
}

func (g *fakeGraph) SetReverbMix(mix float64) { g.mix = mix }

func (g *fakeGraph) edgeList() []Edge {
	var out []Edge
	for _, from := range []Node{NodeSource, NodeLofi, NodeReverb, NodeMaster} {
		for _, to := range []Node{NodeSource, NodeLofi, NodeReverb, NodeMaster} {
			if g.edges[from][to] {
				out = append(out, Edge{from, to})
			}
		}
	}
	return out
}

func sameEdges(a, b []Edge) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestComputeTopology(t *testing.T) {
	cases := []struct {
		name   string
		state  ChainState
		loaded bool
		want   Topology
	}{
		{"unloaded", ChainState{ReverbEnabled: true}, false, TopologyNone},
		{"dry", ChainState{}, true, TopologyLofiMeter},
		{"lofi only", ChainState{LofiEnabled: true}, true, TopologyLofiMeter},
		{"reverb", ChainState{ReverbEnabled: true}, true, TopologyLofiReverbMeter},
		{"both", ChainState{LofiEnabled: true, ReverbEnabled: true}, true, TopologyLofiReverbMeter},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ComputeTopology(tc.state, tc.loaded); got != tc.want {
				t.Fatalf("topology = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestTopologyTerminal(t *testing.T) {
	if TopologyLofiMeter.Terminal() != NodeLofi {
		t.Fatal("lofi topology should meter the filter")
	}
	if TopologyLofiReverbMeter.Terminal() != NodeReverb {
		t.Fatal("reverb topology should meter the reverb")
	}
}

func TestNoRoutingWithoutSource(t *testing.T) {
	g := newFakeGraph(t)
	c := NewController(g, DefaultChainState())
	c.SetLofiEnabled(true)
	c.SetReverbEnabled(true)
	c.SetReverbParams(0.5, 3, 4)
	c.SetLofiCutoff(1000)
	if g.connects != 0 || g.meterBinds != 0 || g.configures != 0 {
		t.Fatalf("expected no graph calls, got connects=%d binds=%d configures=%d", g.connects, g.meterBinds, g.configures)
	}
	st := c.State()
	if !st.LofiEnabled || !st.ReverbEnabled || st.ReverbMix != 0.5 || st.LofiCutoffHz != 1000 {
		t.Fatalf("state not cached: %+v", st)
	}
	if c.Topology() != TopologyNone {
		t.Fatalf("topology = %v, want none", c.Topology())
	}
}

func TestLoadSourceBuildsDryChain(t *testing.T) {
	g := newFakeGraph(t)
	c := NewController(g, DefaultChainState())
	c.LoadSource()

	if !sameEdges(g.edgeList(), TopologyLofiMeter.Edges()) {
		t.Fatalf("edges = %v, want %v", g.edgeList(), TopologyLofiMeter.Edges())
	}
	if g.meter != NodeLofi {
		t.Fatalf("meter bound to %v, want lofi", g.meter)
	}
	if g.cutoff != NeutralCutoffHz || g.res != NeutralResonance {
		t.Fatalf("filter = %v/%v, want neutral", g.cutoff, g.res)
	}
	if g.mix != 0 {
		t.Fatalf("reverb mix = %v, want 0", g.mix)
	}
	if g.notConn != len(chainNodes) {
		t.Fatalf("fresh teardown should swallow %d not-connected errors, got %d", len(chainNodes), g.notConn)
	}
}

func TestLoadSourceReappliesStateFromScratch(t *testing.T) {
	g := newFakeGraph(t)
	st := DefaultChainState()
	st.ReverbEnabled = true
	c := NewController(g, st)
	c.LoadSource()
	c.LoadSource()
	if !sameEdges(g.edgeList(), TopologyLofiReverbMeter.Edges()) {
		t.Fatalf("edges = %v", g.edgeList())
	}
	if g.disconnects != 3 {
		t.Fatalf("second load should tear down 3 nodes, got %d", g.disconnects)
	}
}

func TestToggleIdempotence(t *testing.T) {
	for _, on := range []bool{true, false} {
		g := newFakeGraph(t)
		c := NewController(g, DefaultChainState())
		c.LoadSource()

		c.SetReverbEnabled(on)
		edges, connects := g.edgeList(), g.connects
		c.SetReverbEnabled(on)
		if !sameEdges(g.edgeList(), edges) {
			t.Fatalf("reverb=%v: edges changed on repeat: %v -> %v", on, edges, g.edgeList())
		}
		if g.connects != connects {
			t.Fatalf("reverb=%v: repeat issued %d extra connects", on, g.connects-connects)
		}

		c.SetLofiEnabled(on)
		edges, connects = g.edgeList(), g.connects
		c.SetLofiEnabled(on)
		if !sameEdges(g.edgeList(), edges) || g.connects != connects {
			t.Fatalf("lofi=%v: repeat changed wiring", on)
		}
	}
}

func TestLofiToggleScenario(t *testing.T) {
	g := newFakeGraph(t)
	c := NewController(g, DefaultChainState())
	c.LoadSource()

	raw := SliderFromCutoff(800)
	c.SetLofiCutoff(CutoffFromSlider(raw))
	if g.cutoff != NeutralCutoffHz {
		t.Fatal("cutoff must stay neutral while lo-fi is off")
	}
	c.SetLofiEnabled(true)
	if math.Abs(g.cutoff-800) > 0.5 {
		t.Fatalf("cutoff = %f, want ~800", g.cutoff)
	}
	if g.res != 1 {
		t.Fatalf("resonance = %f, want slider value 1", g.res)
	}
	c.SetLofiResonance(6)
	if g.res != 6 {
		t.Fatalf("resonance = %f, want 6", g.res)
	}
	c.SetLofiEnabled(false)
	if g.cutoff != 22050 || g.res != 0.001 {
		t.Fatalf("filter = %f/%f, want 22050/0.001", g.cutoff, g.res)
	}
	if !sameEdges(g.edgeList(), TopologyLofiMeter.Edges()) {
		t.Fatalf("lo-fi toggle must not bypass the filter: %v", g.edgeList())
	}
}

func TestReverbToggleScenario(t *testing.T) {
	g := newFakeGraph(t)
	c := NewController(g, DefaultChainState())
	c.LoadSource()

	c.SetReverbEnabled(true)
	if !sameEdges(g.edgeList(), TopologyLofiReverbMeter.Edges()) {
		t.Fatalf("edges = %v", g.edgeList())
	}
	if g.mix != 0.18 || g.meter != NodeReverb {
		t.Fatalf("mix=%v meter=%v, want 0.18 on reverb", g.mix, g.meter)
	}
	if g.room != 2.2 || g.decay != 2.5 {
		t.Fatalf("reverb configured with %v/%v", g.room, g.decay)
	}

	c.SetReverbEnabled(false)
	if g.mix != 0 {
		t.Fatalf("mix = %v, want 0 when reverb is off", g.mix)
	}
	if g.meter != NodeLofi {
		t.Fatalf("meter bound to %v, want lofi", g.meter)
	}
	if !sameEdges(g.edgeList(), TopologyLofiMeter.Edges()) {
		t.Fatalf("edges = %v", g.edgeList())
	}
}

func TestReverbParamsTakeCheapPath(t *testing.T) {
	g := newFakeGraph(t)
	c := NewController(g, DefaultChainState())
	c.LoadSource()

	c.SetReverbParams(0.4, 3, 1)
	if g.configures != 0 || g.mix != 0 {
		t.Fatal("disabled reverb should only cache its parameters")
	}

	c.SetReverbEnabled(true)
	connects, binds := g.connects, g.meterBinds
	c.SetReverbParams(0.6, 5, 3)
	if g.connects != connects || g.meterBinds != binds {
		t.Fatal("parameter change must not rebuild the topology")
	}
	if g.mix != 0.6 || g.room != 5 || g.decay != 3 {
		t.Fatalf("reverb = mix %v room %v decay %v", g.mix, g.room, g.decay)
	}
}

func TestRewireOnlyTouchesChangedNodes(t *testing.T) {
	g := newFakeGraph(t)
	c := NewController(g, DefaultChainState())
	c.LoadSource()
	disconnects, connects := g.disconnects, g.connects

	c.SetReverbEnabled(true)
	// lofi->master becomes lofi->reverb, reverb gains reverb->master.
	if g.disconnects-disconnects != 1 {
		t.Fatalf("expected 1 real disconnect, got %d", g.disconnects-disconnects)
	}
	if g.connects-connects != 2 {
		t.Fatalf("expected 2 connects, got %d", g.connects-connects)
	}
	if !g.edges[NodeSource][NodeLofi] {
		t.Fatal("source->lofi must survive the rewire")
	}
}

func TestUnloadTearsDown(t *testing.T) {
	g := newFakeGraph(t)
	c := NewController(g, DefaultChainState())
	c.LoadSource()
	c.Unload()
	if len(g.edgeList()) != 0 {
		t.Fatalf("edges left after unload: %v", g.edgeList())
	}
	if c.Loaded() || c.Topology() != TopologyNone {
		t.Fatal("controller should be unloaded")
	}
}

func TestCutoffSliderMapping(t *testing.T) {
	if got := CutoffFromSlider(20); math.Abs(got-20) > 1e-9 {
		t.Fatalf("CutoffFromSlider(20) = %f", got)
	}
	if got := CutoffFromSlider(20000); math.Abs(got-20000) > 1e-6 {
		t.Fatalf("CutoffFromSlider(20000) = %f", got)
	}
	prev := 0.0
	for raw := 20.0; raw <= 20000; raw += 500 {
		hz := CutoffFromSlider(raw)
		if hz <= prev {
			t.Fatalf("mapping not monotonic at %f", raw)
		}
		if back := SliderFromCutoff(hz); math.Abs(back-raw) > 1e-6 {
			t.Fatalf("round trip %f -> %f -> %f", raw, hz, back)
		}
		prev = hz
	}
}

func TestChainStateClamp(t *testing.T) {
	s := ChainState{LofiCutoffHz: 5, LofiResonance: 100, ReverbMix: 2, ReverbRoomSize: 0, ReverbDecay: -1}.Clamp()
	if s.LofiCutoffHz != MinCutoffHz || s.LofiResonance != MaxResonance || s.ReverbMix != 1 ||
		s.ReverbRoomSize != MinRoomSize || s.ReverbDecay != MinDecay {
		t.Fatalf("clamp = %+v", s)
	}
}
