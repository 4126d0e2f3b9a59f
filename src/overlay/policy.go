package overlay

import (
	"fmt"
	"strings"
)

// Policy decides what happens to the window at the end of a capture cycle.
type Policy int

const (
	// Recreate destroys the window after each capture; the next capture builds a new one.
	Recreate Policy = iota
	// Reuse hides the window and shows it again on the next capture.
	Reuse
)

func (p Policy) String() string {
	switch p {
	case Recreate:
		return "recreate"
	case Reuse:
		return "reuse"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy accepts "reuse" or "recreate" (case-insensitive); empty means Recreate.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "recreate", "fresh":
		return Recreate, nil
	case "reuse", "single":
		return Reuse, nil
	default:
		return Recreate, fmt.Errorf("unknown window policy %q", s)
	}
}

// Strategy performs the final step of a teardown and reports whether the window is gone.
type Strategy interface {
	Finish(w Window) (destroyed bool)
}

type reuseStrategy struct{}

func (reuseStrategy) Finish(w Window) bool {
	w.Hide()
	return false
}

type recreateStrategy struct{}

func (recreateStrategy) Finish(w Window) bool {
	w.Destroy()
	return true
}

// Strategy returns the teardown strategy for p.
func (p Policy) Strategy() Strategy {
	if p == Reuse {
		return reuseStrategy{}
	}
	return recreateStrategy{}
}
