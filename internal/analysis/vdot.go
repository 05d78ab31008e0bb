package analysis

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrDataNotLoaded is returned when no VDOT table is available
	ErrDataNotLoaded = errors.New("VDOT data not loaded")

	// ErrUnknownDistance is returned when the table has no column for a distance
	ErrUnknownDistance = errors.New("distance not in VDOT table")

	// ErrVDOTOutOfRange is returned when interpolating outside the table's tiers
	ErrVDOTOutOfRange = errors.New("VDOT outside table range")
)

// ScopeError reports a time faster than the table's fastest tier
type ScopeError struct {
	Distance     Distance
	Seconds      float64 // the requested time
	FloorSeconds float64 // fastest time in the table for Distance
	MaxVDOT      int
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("Time of %s is beyond the scope of our predictions (faster than VDOT %d). The fastest time we can predict for is %s for %s.",
		FormatTime(e.Seconds), e.MaxVDOT, FormatTime(e.FloorSeconds), e.Distance)
}

// Strategy selects how a race time is turned into a VDOT
type Strategy int

const (
	// StrategyNearest picks the integer tier whose time is closest
	StrategyNearest Strategy = iota
	// StrategyFractional interpolates between the bracketing tiers
	StrategyFractional
)

// ParseStrategy maps a config value to a Strategy
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "", "nearest":
		return StrategyNearest, nil
	case "fractional":
		return StrategyFractional, nil
	default:
		return 0, fmt.Errorf("unknown VDOT strategy %q", s)
	}
}

func (s Strategy) String() string {
	if s == StrategyFractional {
		return "fractional"
	}
	return "nearest"
}

// Resolve derives a VDOT from a race result using the given strategy
func Resolve(t *Table, distance Distance, timeInSeconds float64, s Strategy) (float64, error) {
	if s == StrategyFractional {
		return CalculateFractionalVDOT(t, distance, timeInSeconds)
	}
	vdot, err := CalculateVDOT(t, distance, timeInSeconds)
	return float64(vdot), err
}

// CalculateVDOT returns the integer tier whose time for distance is closest
// to timeInSeconds. Ties go to the lower VDOT.
// Times faster than the fastest tier return a *ScopeError.
func CalculateVDOT(t *Table, distance Distance, timeInSeconds float64) (int, error) {
	if err := checkScope(t, distance, timeInSeconds); err != nil {
		return 0, err
	}

	best := t.tiers[0].VDOT
	smallestDiff := math.Inf(1)

	for _, tier := range t.tiers {
		diff := math.Abs(tier.Times[distance] - timeInSeconds)
		if diff < smallestDiff {
			smallestDiff = diff
			best = tier.VDOT
		}
	}

	return best, nil
}

// CalculateFractionalVDOT interpolates a VDOT between the two tiers that
// bracket timeInSeconds, rounded to one decimal place. Times slower than
// the slowest tier return the minimum VDOT.
func CalculateFractionalVDOT(t *Table, distance Distance, timeInSeconds float64) (float64, error) {
	if err := checkScope(t, distance, timeInSeconds); err != nil {
		return 0, err
	}

	slowest := t.tiers[0]
	if timeInSeconds >= slowest.Times[distance] {
		return float64(slowest.VDOT), nil
	}

	// Binary search for the bracketing entries
	low, high := 0, len(t.tiers)-1
	for high-low > 1 {
		mid := (low + high) / 2
		if timeInSeconds <= t.tiers[mid].Times[distance] {
			low = mid
		} else {
			high = mid
		}
	}

	lowTime := t.tiers[low].Times[distance]
	highTime := t.tiers[high].Times[distance]
	if timeInSeconds <= highTime {
		return float64(t.tiers[high].VDOT), nil
	}

	fraction := (lowTime - timeInSeconds) / (lowTime - highTime)
	vdot := float64(t.tiers[low].VDOT) + fraction

	return math.Round(vdot*10) / 10, nil
}

func checkScope(t *Table, distance Distance, timeInSeconds float64) error {
	if t == nil {
		return ErrDataNotLoaded
	}
	if !t.Supports(distance) {
		return fmt.Errorf("%w: %q", ErrUnknownDistance, distance)
	}

	fastest := t.tiers[len(t.tiers)-1]
	floor := fastest.Times[distance]
	if timeInSeconds < floor {
		return &ScopeError{
			Distance:     distance,
			Seconds:      timeInSeconds,
			FloorSeconds: floor,
			MaxVDOT:      fastest.VDOT,
		}
	}
	return nil
}

// InterpolateTime predicts the time for target at a possibly fractional VDOT.
// Whole VDOTs return the table value unchanged.
func InterpolateTime(t *Table, vdot float64, target Distance) (int, error) {
	if t == nil {
		return 0, ErrDataNotLoaded
	}
	if !t.Supports(target) {
		return 0, fmt.Errorf("%w: %q", ErrUnknownDistance, target)
	}

	lowerVDOT := int(math.Floor(vdot))
	upperVDOT := int(math.Ceil(vdot))

	lowerTime, okLower := t.Time(lowerVDOT, target)
	upperTime, okUpper := t.Time(upperVDOT, target)
	if !okLower || !okUpper {
		return 0, fmt.Errorf("%w: %.2f not in [%d, %d]", ErrVDOTOutOfRange, vdot, t.MinVDOT(), t.MaxVDOT())
	}

	if lowerVDOT == upperVDOT {
		return int(math.Round(lowerTime)), nil
	}

	ratio := vdot - float64(lowerVDOT)
	predicted := lowerTime - (lowerTime-upperTime)*ratio

	return int(math.Floor(predicted + 0.5)), nil
}

// GetVDOTLabel returns a human-readable fitness level for a VDOT value
func GetVDOTLabel(vdot float64) string {
	switch {
	case vdot >= 75:
		return "Elite"
	case vdot >= 65:
		return "Highly Competitive"
	case vdot >= 55:
		return "Competitive"
	case vdot >= 45:
		return "Advanced Recreational"
	case vdot >= 38:
		return "Intermediate"
	case vdot >= 30:
		return "Beginner"
	default:
		return "Novice"
	}
}
