package analysis

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidClock is returned when a clock string can't be parsed
var ErrInvalidClock = errors.New("invalid time, expected SS, MM:SS or HH:MM:SS")

// TimeToSeconds converts hours, minutes and seconds to total seconds.
// No range checking is done here, see ValidateInputs.
func TimeToSeconds(hours, minutes, seconds int) int {
	return hours*3600 + minutes*60 + seconds
}

// FormatTime formats seconds as HH:MM:SS. Fractional seconds are floored
// and negative input renders as 00:00:00.
// Hours are padded to two digits but never truncated.
func FormatTime(totalSeconds float64) string {
	total := max(int64(math.Floor(totalSeconds)), 0)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
}

// FormatSeconds is FormatTime for whole seconds
func FormatSeconds(seconds int) string {
	return FormatTime(float64(seconds))
}

// ParseTimeInput parses a form field as a base-10 integer.
// Leading whitespace is ignored and parsing stops at the first non-digit,
// so "7s" yields 7. Returns defaultValue when no integer can be read.
func ParseTimeInput(raw string, defaultValue int) int {
	s := strings.TrimSpace(raw)

	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return defaultValue
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return defaultValue
	}
	return n
}

// ClampValue restricts value to [min, max]
func ClampValue(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// ParseClock parses "SS", "MM:SS" or "HH:MM:SS" into components.
// Components are not range checked.
func ParseClock(s string) (hours, minutes, seconds int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) == 0 || len(parts) > 3 {
		return 0, 0, 0, ErrInvalidClock
	}

	values := make([]int, len(parts))
	for i, p := range parts {
		n, convErr := strconv.Atoi(strings.TrimSpace(p))
		if convErr != nil || n < 0 {
			return 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
		}
		values[i] = n
	}

	switch len(values) {
	case 1:
		return 0, 0, values[0], nil
	case 2:
		return 0, values[0], values[1], nil
	default:
		return values[0], values[1], values[2], nil
	}
}
