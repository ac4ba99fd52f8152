package obstacle

import "fmt"

// Kind enumerates the decision variants.
type Kind int

const (
	KindStop Kind = iota + 1
	KindNudgeLeft
	KindNudgeRight
	KindFollow
	KindIgnore
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindStop:
		return "stop"
	case KindNudgeLeft:
		return "nudge_left"
	case KindNudgeRight:
		return "nudge_right"
	case KindFollow:
		return "follow"
	case KindIgnore:
		return "ignore"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// StopReason explains why a Stop decision was issued.
type StopReason string

const (
	StopReasonObstacle StopReason = "obstacle"
)

// Decision is the closed set of reactions the planner can attach to an
// obstacle. Only the types in this package implement it.
type Decision interface {
	Kind() Kind
	isDecision()
}

// Stop halts the vehicle DistanceS metres before the obstacle.
type Stop struct {
	DistanceS float64    `json:"distance_s"`
	Reason    StopReason `json:"reason"`
}

// NudgeLeft passes the obstacle on its left keeping DistanceL clearance.
type NudgeLeft struct {
	DistanceL float64 `json:"distance_l"`
}

// NudgeRight passes the obstacle on its right keeping DistanceL clearance.
type NudgeRight struct {
	DistanceL float64 `json:"distance_l"`
}

// Follow stays DistanceS metres behind a moving obstacle.
type Follow struct {
	DistanceS float64 `json:"distance_s"`
}

// Ignore means the obstacle does not interact with the path.
type Ignore struct{}

func (Stop) Kind() Kind       { return KindStop }
func (NudgeLeft) Kind() Kind  { return KindNudgeLeft }
func (NudgeRight) Kind() Kind { return KindNudgeRight }
func (Follow) Kind() Kind     { return KindFollow }
func (Ignore) Kind() Kind     { return KindIgnore }

func (Stop) isDecision()       {}
func (NudgeLeft) isDecision()  {}
func (NudgeRight) isDecision() {}
func (Follow) isDecision()     {}
func (Ignore) isDecision()     {}

// Describe renders a decision for logs and storage. It panics on a
// decision type it does not know.
func Describe(d Decision) string {
	switch v := d.(type) {
	case Stop:
		return fmt.Sprintf("stop(distance_s=%.2f, reason=%s)", v.DistanceS, v.Reason)
	case NudgeLeft:
		return fmt.Sprintf("nudge_left(distance_l=%.2f)", v.DistanceL)
	case NudgeRight:
		return fmt.Sprintf("nudge_right(distance_l=%.2f)", v.DistanceL)
	case Follow:
		return fmt.Sprintf("follow(distance_s=%.2f)", v.DistanceS)
	case Ignore:
		return "ignore"
	default:
		panic(fmt.Sprintf("obstacle: unknown decision %T", d))
	}
}

// Distance returns the buffer distance carried by d, or 0 for Ignore.
func Distance(d Decision) float64 {
	switch v := d.(type) {
	case Stop:
		return v.DistanceS
	case NudgeLeft:
		return v.DistanceL
	case NudgeRight:
		return v.DistanceL
	case Follow:
		return v.DistanceS
	case Ignore:
		return 0
	default:
		panic(fmt.Sprintf("obstacle: unknown decision %T", d))
	}
}
