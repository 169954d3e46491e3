package domain

import "github.com/google/uuid"

type ViewerRelation string

const (
	RelationOwner    ViewerRelation = "owner"
	RelationFollower ViewerRelation = "follower"
	RelationOther    ViewerRelation = "other"
)

// VisibilityField selects which of a workout's two independent visibility
// attributes governs a check.
type VisibilityField string

const (
	WorkoutVisibilityField VisibilityField = "workout_visibility"
	MapVisibilityField     VisibilityField = "map_visibility"
)

// Viewer describes who is looking. A nil *Viewer means an anonymous viewer.
// FollowsOwner must be true only for an accepted follow request pointed at
// the resource owner.
type Viewer struct {
	ActorId      uuid.UUID
	FollowsOwner bool
}

// CanView applies the visibility decision table. The owner always sees their
// own resource; otherwise private is never visible, follower levels require
// an accepted follow, and public is visible to anyone. Block checks are a
// separate gate that precedes this function.
func CanView(ownerId uuid.UUID, level VisibilityLevel, viewer *Viewer) (bool, ViewerRelation) {
	if viewer != nil && viewer.ActorId == ownerId {
		return true, RelationOwner
	}

	relation := RelationOther
	if viewer != nil && viewer.FollowsOwner {
		relation = RelationFollower
	}

	switch level {
	case VisibilityPublic:
		return true, relation
	case VisibilityFollowers, VisibilityFollowersAndRemote:
		return relation == RelationFollower, relation
	default:
		// private, or an unknown level treated as private
		return false, relation
	}
}

// CanViewWorkout checks the selected visibility field of a workout.
func CanViewWorkout(w *Workout, field VisibilityField, viewer *Viewer) (bool, ViewerRelation) {
	level := w.WorkoutVisibility
	if field == MapVisibilityField {
		level = w.MapVisibility
	}
	return CanView(w.ActorId, level, viewer)
}

// GetViewerStatus returns only the relation between viewer and workout owner.
func GetViewerStatus(w *Workout, viewer *Viewer) ViewerRelation {
	_, relation := CanViewWorkout(w, WorkoutVisibilityField, viewer)
	return relation
}
