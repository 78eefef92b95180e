// Package tween provides fixed-duration interpolation driven by an external
// clock. A Tween never sleeps or spawns goroutines: the host samples it with
// the current time on every frame and stops once Done reports true.
package tween

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Easing maps linear progress in [0,1] to eased progress in [0,1].
type Easing func(t float64) float64

// Linear is the identity easing.
func Linear(t float64) float64 { return t }

// QuadInOut accelerates until halfway, then decelerates.
func QuadInOut(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return 1 - math.Pow(-2*t+2, 2)/2
}

// CubicInOut is the default zoom easing.
func CubicInOut(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

var easings = map[string]Easing{
	"linear":       Linear,
	"quad-in-out":  QuadInOut,
	"cubic-in-out": CubicInOut,
}

// EasingByName looks up an easing by its configuration name.
func EasingByName(name string) (Easing, error) {
	if name == "" {
		return CubicInOut, nil
	}
	if e, ok := easings[name]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("unknown easing %q (want one of %v)", name, EasingNames())
}

// EasingNames lists the configurable easing names.
func EasingNames() []string {
	names := make([]string, 0, len(easings))
	for n := range easings {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Tween is a single timed transition.
type Tween struct {
	start    time.Time
	duration time.Duration
	ease     Easing
	canceled bool
}

// New starts a tween at start. A nil easing means CubicInOut.
func New(start time.Time, d time.Duration, ease Easing) *Tween {
	if ease == nil {
		ease = CubicInOut
	}
	return &Tween{start: start, duration: d, ease: ease}
}

// Linear returns the uneased progress at now, clamped to [0,1].
// A canceled or zero-length tween is always complete.
func (tw *Tween) Linear(now time.Time) float64 {
	if tw.canceled || tw.duration <= 0 {
		return 1
	}
	p := float64(now.Sub(tw.start)) / float64(tw.duration)
	return math.Max(0, math.Min(1, p))
}

// At returns the eased progress at now.
func (tw *Tween) At(now time.Time) float64 {
	p := tw.Linear(now)
	if p >= 1 {
		return 1
	}
	return tw.ease(p)
}

// Done reports whether the tween has reached its end at now.
func (tw *Tween) Done(now time.Time) bool { return tw.Linear(now) >= 1 }

// Cancel jumps the tween to its end. Later samples return 1.
func (tw *Tween) Cancel() { tw.canceled = true }

// Canceled reports whether Cancel was called.
func (tw *Tween) Canceled() bool { return tw.canceled }

// Duration returns the configured duration.
func (tw *Tween) Duration() time.Duration { return tw.duration }

// Interval returns the frame interval for the given frame rate (60 fps when fps <= 0).
func Interval(fps int) time.Duration {
	if fps <= 0 {
		fps = 60
	}
	return time.Second / time.Duration(fps)
}

// Lerp interpolates between a and b.
func Lerp(a, b, t float64) float64 { return a + (b-a)*t }
