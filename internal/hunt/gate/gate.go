// Package gate implements the two-threshold farming trigger used for dungeon
// tokens and safari currency.
package gate

// Thresholds pairs the balance below which farming starts with the balance at
// which farming ends.
type Thresholds struct {
	Enter  int64
	Resume int64
}

// Effective clamps Resume to at least Enter+1.
func (t Thresholds) Effective() Thresholds {
	if t.Resume <= t.Enter {
		t.Resume = t.Enter + 1
	}
	return t
}

// AtLeast raises Resume to cost when the pending purchase needs more.
func (t Thresholds) AtLeast(cost int64) Thresholds {
	t = t.Effective()
	if cost > t.Resume {
		t.Resume = cost
	}
	return t
}

// Farming reports whether the resource should be farmed this tick. While
// farming, it keeps farming until balance reaches the resume threshold; while
// hunting, it starts farming once balance drops below the enter threshold.
func Farming(balance int64, farming bool, t Thresholds) bool {
	t = t.Effective()
	if farming {
		return balance < t.Resume
	}
	return balance < t.Enter
}
