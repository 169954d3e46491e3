package federation

import (
	"fmt"
	"time"

	"github.com/fedfit/fedfit/domain"
	"github.com/fedfit/fedfit/util"
)

const (
	apContext    = "https://www.w3.org/ns/activitystreams"
	publicStream = "https://www.w3.org/ns/activitystreams#Public"
)

// workoutWireFields are the fields a Workout object must carry on the wire.
// A missing field aborts the whole conversion.
var workoutWireFields = []string{
	"ave_speed", "distance", "duration", "max_speed", "moving",
	"sport_id", "title", "workout_date", "workout_visibility",
}

// applyWorkoutObject overwrites a workout's mutable fields from a wire
// object. Fields are validated and assigned as one block: any failure means
// the caller must abandon the enclosing transaction, so no partial
// assignment is ever committed.
func applyWorkoutObject(w *domain.Workout, obj map[string]interface{}) error {
	for _, field := range workoutWireFields {
		if _, ok := obj[field]; !ok {
			return fmt.Errorf("missing field %q", field)
		}
	}

	aveSpeed, err := wireFloat(obj, "ave_speed")
	if err != nil {
		return err
	}
	distance, err := wireFloat(obj, "distance")
	if err != nil {
		return err
	}
	maxSpeed, err := wireFloat(obj, "max_speed")
	if err != nil {
		return err
	}
	sportId, err := wireFloat(obj, "sport_id")
	if err != nil {
		return err
	}
	title, err := wireString(obj, "title")
	if err != nil {
		return err
	}

	durationStr, err := wireString(obj, "duration")
	if err != nil {
		return err
	}
	duration, err := domain.ParseDurationString(durationStr)
	if err != nil {
		return err
	}

	movingStr, err := wireString(obj, "moving")
	if err != nil {
		return err
	}
	moving, err := domain.ParseDurationString(movingStr)
	if err != nil {
		return err
	}

	// workout date must be in GMT+00:00
	dateStr, err := wireString(obj, "workout_date")
	if err != nil {
		return err
	}
	workoutDate, err := domain.ParseWorkoutDate(dateStr)
	if err != nil {
		return err
	}

	visibility, err := wireString(obj, "workout_visibility")
	if err != nil {
		return err
	}
	if !domain.ValidVisibility(visibility) {
		return fmt.Errorf("invalid workout_visibility %q", visibility)
	}

	w.AveSpeed = aveSpeed
	w.Distance = distance
	w.Duration = duration
	w.MaxSpeed = maxSpeed
	w.Moving = moving
	w.SportId = int64(sportId)
	w.Title = title
	w.WorkoutDate = workoutDate
	w.WorkoutVisibility = domain.VisibilityLevel(visibility)
	return nil
}

func wireFloat(obj map[string]interface{}, key string) (float64, error) {
	switch v := obj[key].(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("field %q is not a number", key)
	}
}

func wireString(obj map[string]interface{}, key string) (string, error) {
	if v, ok := obj[key].(string); ok {
		return v, nil
	}
	return "", fmt.Errorf("field %q is not a string", key)
}

// WorkoutApID builds the federation identity of a local workout.
func WorkoutApID(conf *util.AppConfig, actor *domain.Actor, w *domain.Workout) string {
	return fmt.Sprintf("https://%s/users/%s/workouts/%s",
		conf.Conf.SslDomain, actor.PreferredUsername, w.Id.String())
}

// WorkoutActivity builds the full workout representation, understood by
// instances running the same software.
func WorkoutActivity(activityType string, actor *domain.Actor, w *domain.Workout) map[string]interface{} {
	recipients := addressing(actor, w)
	return map[string]interface{}{
		"@context":  apContext,
		"id":        fmt.Sprintf("%s/activity", w.ApID),
		"type":      activityType,
		"actor":     actor.ActivityPubID,
		"published": w.CreatedAt.UTC().Format(time.RFC3339),
		"to":        recipients["to"],
		"cc":        recipients["cc"],
		"object": map[string]interface{}{
			"id":                 w.ApID,
			"type":               "Workout",
			"attributedTo":       actor.ActivityPubID,
			"published":          w.CreatedAt.UTC().Format(time.RFC3339),
			"to":                 recipients["to"],
			"cc":                 recipients["cc"],
			"ave_speed":          w.AveSpeed,
			"distance":           w.Distance,
			"duration":           domain.FormatDurationString(w.Duration),
			"max_speed":          w.MaxSpeed,
			"moving":             domain.FormatDurationString(w.Moving),
			"sport_id":           w.SportId,
			"title":              w.Title,
			"workout_date":       domain.FormatWorkoutDate(w.WorkoutDate),
			"workout_visibility": string(w.WorkoutVisibility),
		},
	}
}

// NoteActivity builds the reduced representation for followers on generic
// instances that only understand Note objects.
func NoteActivity(activityType string, actor *domain.Actor, w *domain.Workout) map[string]interface{} {
	recipients := addressing(actor, w)
	content := fmt.Sprintf("New workout: %s (distance: %.2f km, duration: %s)",
		w.Title, w.Distance, domain.FormatDurationString(w.Duration))
	return map[string]interface{}{
		"@context":  apContext,
		"id":        fmt.Sprintf("%s/note/activity", w.ApID),
		"type":      activityType,
		"actor":     actor.ActivityPubID,
		"published": w.CreatedAt.UTC().Format(time.RFC3339),
		"to":        recipients["to"],
		"cc":        recipients["cc"],
		"object": map[string]interface{}{
			"id":           fmt.Sprintf("%s/note", w.ApID),
			"type":         "Note",
			"attributedTo": actor.ActivityPubID,
			"published":    w.CreatedAt.UTC().Format(time.RFC3339),
			"to":           recipients["to"],
			"cc":           recipients["cc"],
			"content":      content,
		},
	}
}

// TombstoneActivity builds the Delete activity for a federated workout that
// was removed locally.
func TombstoneActivity(actor *domain.Actor, w *domain.Workout) map[string]interface{} {
	recipients := addressing(actor, w)
	return map[string]interface{}{
		"@context": apContext,
		"id":       fmt.Sprintf("%s/delete", w.ApID),
		"type":     "Delete",
		"actor":    actor.ActivityPubID,
		"to":       recipients["to"],
		"cc":       recipients["cc"],
		"object": map[string]interface{}{
			"type": "Tombstone",
			"id":   w.ApID,
		},
	}
}

func addressing(actor *domain.Actor, w *domain.Workout) map[string][]string {
	followersURL := fmt.Sprintf("%s/followers", actor.ActivityPubID)
	if w.WorkoutVisibility == domain.VisibilityPublic {
		return map[string][]string{
			"to": {publicStream},
			"cc": {followersURL},
		}
	}
	return map[string][]string{
		"to": {followersURL},
		"cc": {},
	}
}
