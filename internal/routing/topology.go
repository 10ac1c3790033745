package routing

import "errors"

// Node names a fixed stage of the signal path.
type Node int

const (
	NodeSource Node = iota
	NodeLofi
	NodeReverb
	NodeMaster
)

func (n Node) String() string {
	switch n {
	case NodeSource:
		return "source"
	case NodeLofi:
		return "lofi"
	case NodeReverb:
		return "reverb"
	case NodeMaster:
		return "master"
	default:
		return "unknown"
	}
}

// Edge is a directed connection between two nodes.
type Edge struct {
	From, To Node
}

// ErrNotConnected is returned by Graph.Disconnect for a node without
// downstream connections. The controller treats it as success.
var ErrNotConnected = errors.New("node has no downstream connection")

// Graph is the audio backend the controller rewires.
type Graph interface {
	Connect(from, to Node)
	Disconnect(from Node) error
	BindMeter(n Node)
	SetLofi(cutoffHz, resonance float64)
	ConfigureReverb(roomSec, decay float64)
	SetReverbMix(mix float64)
}

// Topology is the shape of the signal path.
type Topology int

const (
	TopologyNone Topology = iota
	TopologyLofiMeter
	TopologyLofiReverbMeter
)

func (t Topology) String() string {
	switch t {
	case TopologyLofiMeter:
		return "source->lofi->meter"
	case TopologyLofiReverbMeter:
		return "source->lofi->reverb->meter"
	default:
		return "none"
	}
}

// Edges lists the connections of t in signal order.
func (t Topology) Edges() []Edge {
	switch t {
	case TopologyLofiMeter:
		return []Edge{{NodeSource, NodeLofi}, {NodeLofi, NodeMaster}}
	case TopologyLofiReverbMeter:
		return []Edge{{NodeSource, NodeLofi}, {NodeLofi, NodeReverb}, {NodeReverb, NodeMaster}}
	default:
		return nil
	}
}

// Terminal is the last processing node, the one the meter listens to.
func (t Topology) Terminal() Node {
	switch t {
	case TopologyLofiMeter:
		return NodeLofi
	case TopologyLofiReverbMeter:
		return NodeReverb
	default:
		return NodeMaster
	}
}

// ComputeTopology decides the signal path. The filter is always in the path;
// lo-fi off only neutralises its parameters.
func ComputeTopology(s ChainState, loaded bool) Topology {
	if !loaded {
		return TopologyNone
	}
	if s.ReverbEnabled {
		return TopologyLofiReverbMeter
	}
	return TopologyLofiMeter
}

// downstream maps each node with outgoing edges to its target.
func (t Topology) downstream() map[Node]Node {
	out := make(map[Node]Node, 3)
	for _, e := range t.Edges() {
		out[e.From] = e.To
	}
	return out
}
