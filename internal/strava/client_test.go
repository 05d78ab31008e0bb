package strava

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const activitiesJSON = `[
  {"id": 2, "name": "Parkrun", "type": "Run", "sport_type": "Run", "workout_type": 1,
   "start_date": "2024-05-04T09:00:00Z", "distance": 5012.3, "moving_time": 1190, "elapsed_time": 1197},
  {"id": 1, "name": "Morning Ride", "type": "Ride", "sport_type": "Ride", "workout_type": null,
   "start_date": "2024-05-03T07:00:00Z", "distance": 30000, "moving_time": 3600, "elapsed_time": 3700}
]`

func TestGetActivities(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/athlete/activities" {
			http.NotFound(w, r)
			return
		}
		gotQuery = r.URL.RawQuery
		w.Header().Set("X-RateLimit-Limit", "100,1000")
		w.Header().Set("X-RateLimit-Usage", "10,200")
		w.Write([]byte(activitiesJSON))
	}))
	defer srv.Close()

	client := NewClientWithHTTP(srv.Client(), srv.URL)
	activities, err := client.GetActivities(context.Background(), time.Time{}, 1, 50)
	if err != nil {
		t.Fatalf("GetActivities() error = %v", err)
	}

	if !strings.Contains(gotQuery, "per_page=50") || strings.Contains(gotQuery, "before=") {
		t.Errorf("query = %q", gotQuery)
	}
	if len(activities) != 2 {
		t.Fatalf("got %d activities, want 2", len(activities))
	}

	race := activities[0]
	if !race.IsRun() || !race.IsWorkoutType(1) {
		t.Errorf("activity 2 should be a run tagged as a race: %+v", race)
	}
	if race.ElapsedTime != 1197 {
		t.Errorf("ElapsedTime = %d, want 1197", race.ElapsedTime)
	}
	if activities[1].IsRun() || activities[1].IsWorkoutType(1) {
		t.Errorf("ride misclassified: %+v", activities[1])
	}

	short, daily := client.RateLimitStatus()
	if short != 90 || daily != 800 {
		t.Errorf("RateLimitStatus() = %d, %d, want 90, 800", short, daily)
	}
}

func TestGetActivities_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Authorization Error"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClientWithHTTP(srv.Client(), srv.URL)
	_, err := client.GetActivities(context.Background(), time.Time{}, 1, 50)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("GetActivities() error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized || apiErr.Message != "Authorization Error" {
		t.Errorf("APIError = %+v", apiErr)
	}
}

func TestIsRun(t *testing.T) {
	tests := []struct {
		activity Activity
		want     bool
	}{
		{Activity{Type: "Run"}, true},
		{Activity{Type: "Run", SportType: "TrailRun"}, true},
		{Activity{Type: "Run", SportType: "VirtualRun"}, true},
		{Activity{Type: "Ride", SportType: "Ride"}, false},
		{Activity{Type: "Walk"}, false},
	}

	for _, tt := range tests {
		if got := tt.activity.IsRun(); got != tt.want {
			t.Errorf("IsRun(%s/%s) = %v, want %v", tt.activity.Type, tt.activity.SportType, got, tt.want)
		}
	}
}

func TestRateLimiter_WaitsForShortWindow(t *testing.T) {
	r := NewRateLimiter()
	r.minInterval = 0
	r.shortUsage = r.shortLimit

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := r.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() error = %v, want DeadlineExceeded", err)
	}
}

func TestRateLimiter_CountsRequests(t *testing.T) {
	r := NewRateLimiter()
	r.minInterval = 0

	for i := 0; i < 3; i++ {
		if err := r.Wait(context.Background()); err != nil {
			t.Fatal(err)
		}
	}

	short, daily := r.Status()
	if short != 97 || daily != 997 {
		t.Errorf("Status() = %d, %d, want 97, 997", short, daily)
	}
}

func TestRateLimiter_IgnoresMalformedHeaders(t *testing.T) {
	r := NewRateLimiter()
	h := http.Header{}
	h.Set("X-RateLimit-Usage", "abc,12")
	h.Set("X-RateLimit-Limit", "200")
	r.UpdateFromHeaders(h)

	short, daily := r.Status()
	if short != 100 || daily != 1000 {
		t.Errorf("Status() = %d, %d, want untouched 100, 1000", short, daily)
	}
}
