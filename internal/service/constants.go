package service

import "time"

const (
	// Strava activity paging for race import
	RacePageSize     = 50
	MaxRacePages     = 4
	DefaultRaceLimit = 5

	// Strava marks races with workout_type 1 on runs
	RaceWorkoutType = 1

	// Remote table fetch limit
	TableFetchTimeout = 10 * time.Second
	MaxTableBytes     = 1 << 20
)

// Error categories reported with calculation_error events
const (
	CategoryValidation      = "validation"
	CategoryVDOTExceeded    = "vdot_exceeded"
	CategoryDataUnavailable = "data_unavailable"
	CategoryInternal        = "internal"
)
