package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestCanViewOwnerAlwaysSees(t *testing.T) {
	ownerId := uuid.New()
	owner := &Viewer{ActorId: ownerId, FollowsOwner: false}

	levels := []VisibilityLevel{
		VisibilityPrivate, VisibilityFollowers, VisibilityFollowersAndRemote, VisibilityPublic,
	}
	for _, level := range levels {
		ok, relation := CanView(ownerId, level, owner)
		if !ok {
			t.Errorf("Owner should see own resource at level %s", level)
		}
		if relation != RelationOwner {
			t.Errorf("Expected relation owner, got %s", relation)
		}
	}
}

func TestCanViewDecisionTable(t *testing.T) {
	ownerId := uuid.New()
	follower := &Viewer{ActorId: uuid.New(), FollowsOwner: true}
	stranger := &Viewer{ActorId: uuid.New(), FollowsOwner: false}

	tests := []struct {
		name     string
		level    VisibilityLevel
		viewer   *Viewer
		expected bool
	}{
		{"private hidden from follower", VisibilityPrivate, follower, false},
		{"private hidden from stranger", VisibilityPrivate, stranger, false},
		{"private hidden from anonymous", VisibilityPrivate, nil, false},
		{"followers_only visible to follower", VisibilityFollowers, follower, true},
		{"followers_only hidden from stranger", VisibilityFollowers, stranger, false},
		{"followers_only hidden from anonymous", VisibilityFollowers, nil, false},
		{"followers_and_remote visible to follower", VisibilityFollowersAndRemote, follower, true},
		{"followers_and_remote hidden from stranger", VisibilityFollowersAndRemote, stranger, false},
		{"followers_and_remote hidden from anonymous", VisibilityFollowersAndRemote, nil, false},
		{"public visible to follower", VisibilityPublic, follower, true},
		{"public visible to stranger", VisibilityPublic, stranger, true},
		{"public visible to anonymous", VisibilityPublic, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, _ := CanView(ownerId, tt.level, tt.viewer)
			if ok != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, ok)
			}
		})
	}
}

func TestCanViewUnknownLevelIsPrivate(t *testing.T) {
	ownerId := uuid.New()
	follower := &Viewer{ActorId: uuid.New(), FollowsOwner: true}

	ok, _ := CanView(ownerId, VisibilityLevel("bogus"), follower)
	if ok {
		t.Error("Unknown visibility level should behave like private")
	}
}

func TestCanViewWorkoutSelectsField(t *testing.T) {
	ownerId := uuid.New()
	follower := &Viewer{ActorId: uuid.New(), FollowsOwner: true}

	w := &Workout{
		Id:                uuid.New(),
		ActorId:           ownerId,
		WorkoutVisibility: VisibilityFollowers,
		MapVisibility:     VisibilityPrivate,
	}

	if ok, _ := CanViewWorkout(w, WorkoutVisibilityField, follower); !ok {
		t.Error("Follower should see a followers_only workout")
	}
	if ok, _ := CanViewWorkout(w, MapVisibilityField, follower); ok {
		t.Error("Follower should not see a private map")
	}
}

func TestGetViewerStatus(t *testing.T) {
	ownerId := uuid.New()
	w := &Workout{ActorId: ownerId, WorkoutVisibility: VisibilityPublic}

	if rel := GetViewerStatus(w, &Viewer{ActorId: ownerId}); rel != RelationOwner {
		t.Errorf("Expected owner, got %s", rel)
	}
	if rel := GetViewerStatus(w, &Viewer{ActorId: uuid.New(), FollowsOwner: true}); rel != RelationFollower {
		t.Errorf("Expected follower, got %s", rel)
	}
	if rel := GetViewerStatus(w, nil); rel != RelationOther {
		t.Errorf("Expected other, got %s", rel)
	}
}
