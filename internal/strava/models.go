package strava

import "time"

// Activity represents a Strava activity summary from /athlete/activities
type Activity struct {
	ID             int64     `json:"id"`
	Athlete        Athlete   `json:"athlete"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	SportType      string    `json:"sport_type"`
	WorkoutType    *int      `json:"workout_type"` // nullable; 1 = race for runs
	StartDate      time.Time `json:"start_date"`
	StartDateLocal time.Time `json:"start_date_local"`
	Timezone       string    `json:"timezone"`
	Distance       float64   `json:"distance"`      // meters
	MovingTime     int       `json:"moving_time"`   // seconds
	ElapsedTime    int       `json:"elapsed_time"`  // seconds
	AverageSpeed   float64   `json:"average_speed"` // m/s
}

// Athlete represents a Strava athlete (minimal info in activity response)
type Athlete struct {
	ID int64 `json:"id"`
}

// IsRun reports whether the activity is a foot race candidate
func (a Activity) IsRun() bool {
	switch a.SportType {
	case "Run", "TrailRun", "VirtualRun":
		return true
	case "":
		return a.Type == "Run"
	}
	return false
}

// IsWorkoutType reports whether the activity is tagged with workout type t
func (a Activity) IsWorkoutType(t int) bool {
	return a.WorkoutType != nil && *a.WorkoutType == t
}
