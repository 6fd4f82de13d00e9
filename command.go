package densim

import (
	"fmt"
	"math"
)

// CommandKind tags a structural command.
type CommandKind int

const (
	KindN CommandKind = iota // prepare node in |+>
	KindE                    // entangle two nodes with CZ
	KindM                    // measure node
	KindX                    // X byproduct correction
	KindZ                    // Z byproduct correction
	KindC                    // Clifford correction
	KindT                    // other (tick)
)

// CommandKinds lists every kind in declaration order.
var CommandKinds = []CommandKind{KindN, KindE, KindM, KindX, KindZ, KindC, KindT}

func (k CommandKind) String() string {
	switch k {
	case KindN:
		return "N"
	case KindE:
		return "E"
	case KindM:
		return "M"
	case KindX:
		return "X"
	case KindZ:
		return "Z"
	case KindC:
		return "C"
	case KindT:
		return "T"
	}
	return fmt.Sprintf("CommandKind(%d)", int(k))
}

// Plane is a measurement plane of the Bloch sphere.
type Plane int

const (
	PlaneXY Plane = iota
	PlaneYZ
	PlaneXZ
)

func (p Plane) String() string {
	switch p {
	case PlaneXY:
		return "XY"
	case PlaneYZ:
		return "YZ"
	case PlaneXZ:
		return "XZ"
	}
	return fmt.Sprintf("Plane(%d)", int(p))
}

// Polar returns the Bloch vector at angle (radians) in the plane. The cosine
// axis is X for XY and Z for YZ and XZ; the sine axis is Y for XY and YZ and
// X for XZ.
func (p Plane) Polar(angle float64) [3]float64 {
	c, s := math.Cos(angle), math.Sin(angle)

	switch p {
	case PlaneYZ:
		return [3]float64{0, s, c}
	case PlaneXZ:
		return [3]float64{s, 0, c}
	default:
		return [3]float64{c, s, 0}
	}
}

/*
Command is one record of the command stream. Which fields are meaningful
depends on Kind: Node for N, M, X, Z, C and T; Nodes for E; Plane, Angle (in
units of π), SDomain and TDomain for M; Domain for X and Z; Clifford for C.
Commands are produced by an external compiler and only read here.
*/
type Command struct {
	Kind     CommandKind
	Node     int
	Nodes    [2]int
	Plane    Plane
	Angle    float64
	SDomain  []int
	TDomain  []int
	Domain   []int
	Clifford Operator
}

func (cmd Command) String() string {
	switch cmd.Kind {
	case KindE:
		return fmt.Sprintf("E(%d, %d)", cmd.Nodes[0], cmd.Nodes[1])
	case KindM:
		return fmt.Sprintf("M(%d, %s, %vπ, s=%v, t=%v)", cmd.Node, cmd.Plane, cmd.Angle, cmd.SDomain, cmd.TDomain)
	case KindX, KindZ:
		return fmt.Sprintf("%s(%d, domain=%v)", cmd.Kind, cmd.Node, cmd.Domain)
	default:
		return fmt.Sprintf("%s(%d)", cmd.Kind, cmd.Node)
	}
}

func PrepareCmd(node int) Command { return Command{Kind: KindN, Node: node} }

func EntangleCmd(u, v int) Command { return Command{Kind: KindE, Nodes: [2]int{u, v}} }

func MeasureCmd(node int, plane Plane, angle float64, sDomain, tDomain []int) Command {
	return Command{Kind: KindM, Node: node, Plane: plane, Angle: angle, SDomain: sDomain, TDomain: tDomain}
}

func XCmd(node int, domain []int) Command { return Command{Kind: KindX, Node: node, Domain: domain} }

func ZCmd(node int, domain []int) Command { return Command{Kind: KindZ, Node: node, Domain: domain} }

func CliffordCmd(node int, op Operator) Command {
	return Command{Kind: KindC, Node: node, Clifford: op}
}

func TickCmd(node int) Command { return Command{Kind: KindT, Node: node} }

// Pattern is an ordered command stream with its declared input and output nodes.
type Pattern struct {
	InputNodes  []int
	Commands    []Command
	OutputNodes []int
}
