package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type VisibilityLevel string

const (
	VisibilityPrivate            VisibilityLevel = "private"
	VisibilityFollowers          VisibilityLevel = "followers_only"
	VisibilityFollowersAndRemote VisibilityLevel = "followers_and_remote_only"
	VisibilityPublic             VisibilityLevel = "public"
)

// ValidVisibility reports whether s is one of the four known levels.
func ValidVisibility(s string) bool {
	switch VisibilityLevel(s) {
	case VisibilityPrivate, VisibilityFollowers, VisibilityFollowersAndRemote, VisibilityPublic:
		return true
	}
	return false
}

// WorkoutDateFormat is the fixed wire format for workout dates, always UTC.
const WorkoutDateFormat = "2006-01-02 15:04"

type Sport struct {
	Id       int64
	Label    string
	IsActive bool
}

// Workout is a recorded activity. ApID is empty until the workout has been
// federated; once set it uniquely identifies the workout across instances.
type Workout struct {
	Id                uuid.UUID
	ApID              string
	ActorId           uuid.UUID
	SportId           int64
	Title             string
	Distance          float64
	Duration          time.Duration
	Moving            time.Duration
	AveSpeed          float64
	MaxSpeed          float64
	WorkoutDate       time.Time
	WorkoutVisibility VisibilityLevel
	MapVisibility     VisibilityLevel
	CreatedAt         time.Time
}

func (w *Workout) ToString() string {
	return fmt.Sprintf("\n\tId: %s \n\tApID: %s \n\tTitle: %s \n\tDate: %s)",
		w.Id, w.ApID, w.Title, w.WorkoutDate.Format(WorkoutDateFormat))
}

// ParseDurationString converts a human-readable "H:MM:SS" duration into a
// time.Duration. "MM:SS" is accepted for sub-hour values.
func ParseDurationString(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid duration string: %q", s)
	}

	var total int64
	for _, part := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid duration string: %q", s)
		}
		total = total*60 + v
	}
	return time.Duration(total) * time.Second, nil
}

// FormatDurationString renders a duration as "H:MM:SS".
func FormatDurationString(d time.Duration) string {
	seconds := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}

// ParseWorkoutDate parses the fixed-format workout date. Dates on the wire
// are always GMT+00:00.
func ParseWorkoutDate(s string) (time.Time, error) {
	return time.ParseInLocation(WorkoutDateFormat, s, time.UTC)
}

func FormatWorkoutDate(t time.Time) string {
	return t.UTC().Format(WorkoutDateFormat)
}

// RecomputeAverageSpeed returns the running average speed over nbWorkouts
// workouts, given the average over the first nbWorkouts-1 and the newest
// workout's average speed.
func RecomputeAverageSpeed(nbWorkouts int, totalAverageSpeed, workoutAverageSpeed float64) float64 {
	if nbWorkouts <= 1 {
		return workoutAverageSpeed
	}
	return (totalAverageSpeed*float64(nbWorkouts-1) + workoutAverageSpeed) / float64(nbWorkouts)
}
