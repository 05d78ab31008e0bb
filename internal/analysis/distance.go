package analysis

import "math"

// Distance is a race distance key as used in the VDOT table
type Distance string

// Supported distance keys
const (
	Distance1500     Distance = "1500"
	DistanceMile     Distance = "Mile"
	Distance3000     Distance = "3000"
	Distance2Mile    Distance = "2-mile"
	Distance5K       Distance = "5K"
	Distance10K      Distance = "10K"
	Distance15K      Distance = "15K"
	DistanceHalf     Distance = "HM"
	DistanceMarathon Distance = "M"
)

// Distances in meters
const (
	Meters1500     = 1500
	Meters1Mile    = 1609.344
	Meters3000     = 3000
	Meters2Mile    = 3218.688
	Meters5K       = 5000
	Meters10K      = 10000
	Meters15K      = 15000
	MetersHalf     = 21097.5
	MetersMarathon = 42195
)

// DistanceTolerance is the 5% window used when matching measured distances
const DistanceTolerance = 0.05

type distanceInfo struct {
	meters  float64
	label   string
	pctVO2  float64 // fraction of VO2max sustainable for the race (Daniels)
	minTime int     // seconds, 0 = no plausibility floor
}

var distances = map[Distance]distanceInfo{
	Distance1500:     {Meters1500, "1500m", 0.98, 180},
	DistanceMile:     {Meters1Mile, "Mile", 0.97, 200},
	Distance3000:     {Meters3000, "3000m", 0.96, 0},
	Distance2Mile:    {Meters2Mile, "2 Mile", 0.96, 0},
	Distance5K:       {Meters5K, "5K", 0.95, 600},
	Distance10K:      {Meters10K, "10K", 0.92, 1200},
	Distance15K:      {Meters15K, "15K", 0.90, 2100},
	DistanceHalf:     {MetersHalf, "Half Marathon", 0.88, 2700},
	DistanceMarathon: {MetersMarathon, "Marathon", 0.84, 5400},
}

// Catalog is an ordered set of distances, shortest first
type Catalog []Distance

// CanonicalCatalog is the default set of prediction distances
var CanonicalCatalog = Catalog{
	Distance1500,
	DistanceMile,
	Distance5K,
	Distance10K,
	Distance15K,
	DistanceHalf,
	DistanceMarathon,
}

// ExtendedCatalog adds the 3000m and 2 mile distances
var ExtendedCatalog = Catalog{
	Distance1500,
	DistanceMile,
	Distance3000,
	Distance2Mile,
	Distance5K,
	Distance10K,
	Distance15K,
	DistanceHalf,
	DistanceMarathon,
}

// Contains reports whether d is part of the catalog
func (c Catalog) Contains(d Distance) bool {
	for _, x := range c {
		if x == d {
			return true
		}
	}
	return false
}

// GetSupportedDistances returns the canonical distance keys
func GetSupportedDistances() []Distance {
	out := make([]Distance, len(CanonicalCatalog))
	copy(out, CanonicalCatalog)
	return out
}

// IsValidDistance checks if a key names a canonical distance
func IsValidDistance(key string) bool {
	return CanonicalCatalog.Contains(Distance(key))
}

// IsKnown reports whether the distance has catalog metadata
func (d Distance) IsKnown() bool {
	_, ok := distances[d]
	return ok
}

// Meters returns the nominal length of the distance, or 0 if unknown
func (d Distance) Meters() float64 {
	return distances[d].meters
}

// Label returns a human-readable name
func (d Distance) Label() string {
	if info, ok := distances[d]; ok {
		return info.label
	}
	return string(d)
}

// PercentVO2Max returns the fraction of VO2max a runner sustains over the distance
func (d Distance) PercentVO2Max() float64 {
	return distances[d].pctVO2
}

// MinTime returns the minimum plausible finish time in seconds.
// ok is false when no floor is defined for the distance.
func (d Distance) MinTime() (seconds int, ok bool) {
	info, found := distances[d]
	if !found || info.minTime == 0 {
		return 0, false
	}
	return info.minTime, true
}

// Within returns the catalog entries that t has a column for, in order
func (c Catalog) Within(t *Table) Catalog {
	if t == nil {
		return nil
	}
	out := make(Catalog, 0, len(c))
	for _, d := range c {
		if t.Supports(d) {
			out = append(out, d)
		}
	}
	return out
}

// MatchDistance maps a measured distance in meters to the nearest catalog
// entry within DistanceTolerance. Returns false when nothing matches.
func (c Catalog) MatchDistance(meters float64) (Distance, bool) {
	var best Distance
	bestDiff := math.Inf(1)
	for _, d := range c {
		if !matchesDistance(meters, d.Meters()) {
			continue
		}
		if diff := math.Abs(meters - d.Meters()); diff < bestDiff {
			best, bestDiff = d, diff
		}
	}
	return best, best != ""
}

// CalculatePacePerMile returns pace in seconds per mile
func CalculatePacePerMile(distanceMeters float64, durationSeconds int) float64 {
	if distanceMeters <= 0 || durationSeconds <= 0 {
		return 0
	}
	miles := distanceMeters / Meters1Mile
	return float64(durationSeconds) / miles
}

// CalculatePacePerKm returns pace in seconds per kilometer
func CalculatePacePerKm(distanceMeters float64, durationSeconds int) float64 {
	if distanceMeters <= 0 || durationSeconds <= 0 {
		return 0
	}
	return float64(durationSeconds) / (distanceMeters / 1000)
}

// matchesDistance checks if a distance is within 5% of a target
func matchesDistance(distance, target float64) bool {
	tolerance := target * DistanceTolerance
	return math.Abs(distance-target) <= tolerance
}
