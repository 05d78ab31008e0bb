package analysis

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func mustDefaultTable(t *testing.T) *Table {
	t.Helper()
	table, err := DefaultTable()
	if err != nil {
		t.Fatalf("DefaultTable() error = %v", err)
	}
	return table
}

func TestCalculateVDOT(t *testing.T) {
	table := mustDefaultTable(t)

	tests := []struct {
		name     string
		distance Distance
		seconds  float64
		wantVDOT int
	}{
		{"5K exact VDOT 50", Distance5K, 1197, 50},
		{"5K exact VDOT 30 (slowest)", Distance5K, 1840, 30},
		{"5K exact VDOT 85 (fastest)", Distance5K, 757, 85},
		{"5K slower than slowest tier", Distance5K, 1900, 30},
		{"5K between 50 and 51, closer to 50", Distance5K, 1190, 50},
		{"5K between 50 and 51, closer to 51", Distance5K, 1180, 51},
		{"1500 exact VDOT 50", Distance1500, 324, 50},
		{"Mile exact VDOT 50", DistanceMile, 350, 50},
		{"10K exact VDOT 50", Distance10K, 2481, 50},
		{"15K exact VDOT 50", Distance15K, 3796, 50},
		{"Half exact VDOT 50", DistanceHalf, 5475, 50},
		{"Marathon exact VDOT 50", DistanceMarathon, 11449, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateVDOT(table, tt.distance, tt.seconds)
			if err != nil {
				t.Fatalf("CalculateVDOT() error = %v", err)
			}
			if got != tt.wantVDOT {
				t.Errorf("CalculateVDOT(%s, %v) = %d, want %d", tt.distance, tt.seconds, got, tt.wantVDOT)
			}
		})
	}
}

func TestCalculateVDOT_FasterIsHigher(t *testing.T) {
	table := mustDefaultTable(t)

	slow, err := CalculateVDOT(table, Distance5K, 1500)
	if err != nil {
		t.Fatal(err)
	}
	fast, err := CalculateVDOT(table, Distance5K, 1100)
	if err != nil {
		t.Fatal(err)
	}
	if fast <= slow {
		t.Errorf("VDOT for 1100s (%d) should exceed VDOT for 1500s (%d)", fast, slow)
	}
}

func TestCalculateVDOT_TieGoesToLowerVDOT(t *testing.T) {
	table, err := NewTable(map[int]map[Distance]float64{
		40: {Distance5K: 1000, Distance10K: 2100},
		41: {Distance5K: 980, Distance10K: 2060},
		42: {Distance5K: 960, Distance10K: 2020},
	})
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}

	got, err := CalculateVDOT(table, Distance5K, 990)
	if err != nil {
		t.Fatalf("CalculateVDOT() error = %v", err)
	}
	if got != 40 {
		t.Errorf("CalculateVDOT() tie = %d, want 40", got)
	}
}

func TestCalculateVDOT_Errors(t *testing.T) {
	table := mustDefaultTable(t)

	t.Run("nil table", func(t *testing.T) {
		_, err := CalculateVDOT(nil, Distance5K, 1200)
		if !errors.Is(err, ErrDataNotLoaded) {
			t.Errorf("error = %v, want ErrDataNotLoaded", err)
		}
	})

	t.Run("unknown distance", func(t *testing.T) {
		_, err := CalculateVDOT(table, Distance("3K"), 600)
		if !errors.Is(err, ErrUnknownDistance) {
			t.Errorf("error = %v, want ErrUnknownDistance", err)
		}
	})

	scopeCases := []struct {
		name     string
		distance Distance
		seconds  float64
		floor    string
	}{
		{"5K 700s", Distance5K, 700, "00:12:37"},
		{"5K one second under the floor", Distance5K, 756, "00:12:37"},
		{"1500 200s", Distance1500, 200, "00:03:24"},
		{"Marathon 7000s", DistanceMarathon, 7000, "02:01:10"},
	}

	for _, tt := range scopeCases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CalculateVDOT(table, tt.distance, tt.seconds)

			var scopeErr *ScopeError
			if !errors.As(err, &scopeErr) {
				t.Fatalf("error = %v, want *ScopeError", err)
			}
			if scopeErr.MaxVDOT != 85 {
				t.Errorf("MaxVDOT = %d, want 85", scopeErr.MaxVDOT)
			}

			msg := err.Error()
			for _, want := range []string{"beyond the scope", tt.floor, FormatTime(tt.seconds), "VDOT 85", string(tt.distance)} {
				if !strings.Contains(msg, want) {
					t.Errorf("message %q does not contain %q", msg, want)
				}
			}
		})
	}
}

func TestCalculateFractionalVDOT(t *testing.T) {
	table := mustDefaultTable(t)

	tests := []struct {
		name    string
		seconds float64
		want    float64
	}{
		{"exact tier", 1197, 50},
		{"halfway between 50 and 51", 1187, 50.5},
		{"slower than slowest", 2000, 30},
		{"fastest tier", 757, 85},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateFractionalVDOT(table, Distance5K, tt.seconds)
			if err != nil {
				t.Fatalf("CalculateFractionalVDOT() error = %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CalculateFractionalVDOT(%v) = %v, want %v", tt.seconds, got, tt.want)
			}
		})
	}

	var scopeErr *ScopeError
	if _, err := CalculateFractionalVDOT(table, Distance5K, 700); !errors.As(err, &scopeErr) {
		t.Errorf("error = %v, want *ScopeError", err)
	}
}

func TestResolve(t *testing.T) {
	table := mustDefaultTable(t)

	nearest, err := Resolve(table, Distance5K, 1187, StrategyNearest)
	if err != nil {
		t.Fatal(err)
	}
	if nearest != 50 && nearest != 51 {
		t.Errorf("nearest = %v, want a whole tier", nearest)
	}
	if nearest != math.Trunc(nearest) {
		t.Errorf("nearest = %v, want an integer", nearest)
	}

	fractional, err := Resolve(table, Distance5K, 1187, StrategyFractional)
	if err != nil {
		t.Fatal(err)
	}
	if fractional != 50.5 {
		t.Errorf("fractional = %v, want 50.5", fractional)
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"", StrategyNearest, false},
		{"nearest", StrategyNearest, false},
		{"fractional", StrategyFractional, false},
		{"ratio", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStrategy(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStrategy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseStrategy(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestInterpolateTime_WholeVDOTIsExact(t *testing.T) {
	table := mustDefaultTable(t)

	for _, vdot := range table.Tiers() {
		for _, d := range table.Distances() {
			want, _ := table.Time(vdot, d)
			got, err := InterpolateTime(table, float64(vdot), d)
			if err != nil {
				t.Fatalf("InterpolateTime(%d, %s) error = %v", vdot, d, err)
			}
			if float64(got) != want {
				t.Errorf("InterpolateTime(%d, %s) = %d, want %v", vdot, d, got, want)
			}
		}
	}
}

func TestInterpolateTime_Fractional(t *testing.T) {
	table := mustDefaultTable(t)

	// VDOT 50 5K = 1197s, VDOT 51 5K = 1176s
	tests := []struct {
		vdot float64
		want int
	}{
		{50.25, 1192}, // 1191.75
		{50.5, 1187},  // 1186.5 rounds up
		{50.75, 1181}, // 1181.25
	}

	for _, tt := range tests {
		got, err := InterpolateTime(table, tt.vdot, Distance5K)
		if err != nil {
			t.Fatalf("InterpolateTime(%v) error = %v", tt.vdot, err)
		}
		if got != tt.want {
			t.Errorf("InterpolateTime(%v) = %d, want %d", tt.vdot, got, tt.want)
		}
	}
}

func TestInterpolateTime_BracketedAndMonotonic(t *testing.T) {
	table := mustDefaultTable(t)

	for _, d := range CanonicalCatalog {
		prev := math.MaxInt
		for v := float64(table.MinVDOT()); v < float64(table.MaxVDOT()); v += 0.125 {
			got, err := InterpolateTime(table, v, d)
			if err != nil {
				t.Fatalf("InterpolateTime(%v, %s) error = %v", v, d, err)
			}

			lower, _ := table.Time(int(math.Floor(v)), d)
			upper, _ := table.Time(int(math.Ceil(v)), d)
			if float64(got) > lower || float64(got) < upper {
				t.Errorf("InterpolateTime(%v, %s) = %d, outside [%v, %v]", v, d, got, upper, lower)
			}
			if got > prev {
				t.Errorf("InterpolateTime(%v, %s) = %d, slower than previous %d", v, d, got, prev)
			}
			prev = got
		}
	}
}

func TestInterpolateTime_NearIntegers(t *testing.T) {
	table := mustDefaultTable(t)

	at50, _ := InterpolateTime(table, 50, Distance5K)
	near50, _ := InterpolateTime(table, 50.001, Distance5K)
	if abs(near50-at50) >= 5 {
		t.Errorf("50.001 gave %d, want close to %d", near50, at50)
	}

	at51, _ := InterpolateTime(table, 51, Distance5K)
	near51, _ := InterpolateTime(table, 50.999, Distance5K)
	if abs(near51-at51) >= 5 {
		t.Errorf("50.999 gave %d, want close to %d", near51, at51)
	}
}

func TestInterpolateTime_Errors(t *testing.T) {
	table := mustDefaultTable(t)

	if _, err := InterpolateTime(nil, 50, Distance5K); !errors.Is(err, ErrDataNotLoaded) {
		t.Errorf("nil table error = %v, want ErrDataNotLoaded", err)
	}
	if _, err := InterpolateTime(table, 29.5, Distance5K); !errors.Is(err, ErrVDOTOutOfRange) {
		t.Errorf("29.5 error = %v, want ErrVDOTOutOfRange", err)
	}
	if _, err := InterpolateTime(table, 85.5, Distance5K); !errors.Is(err, ErrVDOTOutOfRange) {
		t.Errorf("85.5 error = %v, want ErrVDOTOutOfRange", err)
	}
	if _, err := InterpolateTime(table, 50, Distance("marathon")); !errors.Is(err, ErrUnknownDistance) {
		t.Errorf("unknown distance error = %v, want ErrUnknownDistance", err)
	}
}

func TestInterpolateTime_LongerIsSlower(t *testing.T) {
	table := mustDefaultTable(t)

	var prev int
	for _, d := range CanonicalCatalog {
		got, err := InterpolateTime(table, 50, d)
		if err != nil {
			t.Fatal(err)
		}
		if got <= prev {
			t.Errorf("%s time %d should be longer than %d", d, got, prev)
		}
		prev = got
	}
}

func TestGetVDOTLabel(t *testing.T) {
	tests := []struct {
		vdot      float64
		wantLabel string
	}{
		{80, "Elite"},
		{75, "Elite"},
		{70, "Highly Competitive"},
		{65, "Highly Competitive"},
		{60, "Competitive"},
		{55, "Competitive"},
		{50, "Advanced Recreational"},
		{45, "Advanced Recreational"},
		{42, "Intermediate"},
		{38, "Intermediate"},
		{35, "Beginner"},
		{30, "Beginner"},
		{25, "Novice"},
	}

	for _, tt := range tests {
		t.Run(tt.wantLabel, func(t *testing.T) {
			got := GetVDOTLabel(tt.vdot)
			if got != tt.wantLabel {
				t.Errorf("GetVDOTLabel(%v) = %v, want %v", tt.vdot, got, tt.wantLabel)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	table := mustDefaultTable(t)

	tests := []struct {
		from    Distance
		to      Distance
		seconds float64
	}{
		{Distance5K, DistanceMarathon, 1200},
		{Distance10K, DistanceHalf, 2400},
		{DistanceHalf, Distance5K, 5400},
		{DistanceMarathon, Distance10K, 11400},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			vdot, err := CalculateVDOT(table, tt.from, tt.seconds)
			if err != nil {
				t.Fatal(err)
			}
			projected, err := InterpolateTime(table, float64(vdot), tt.to)
			if err != nil {
				t.Fatal(err)
			}

			back, err := CalculateVDOT(table, tt.to, float64(projected))
			if err != nil {
				t.Fatal(err)
			}
			original, err := InterpolateTime(table, float64(back), tt.from)
			if err != nil {
				t.Fatal(err)
			}

			// Error comes only from snapping to an integer tier
			tolerance := int(tt.seconds * 0.02)
			if abs(original-int(tt.seconds)) > tolerance {
				t.Errorf("round trip %s -> %s -> %s: %s became %s",
					tt.from, tt.to, tt.from, FormatTime(tt.seconds), FormatSeconds(original))
			}
		})
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
