package federation

import (
	"testing"
)

func TestParseActivity(t *testing.T) {
	body := []byte(`{
		"@context": "https://www.w3.org/ns/activitystreams",
		"id": "https://peer.example/activities/1",
		"type": "Follow",
		"actor": "https://peer.example/users/alice",
		"object": "https://fit.example/users/bob"
	}`)

	activity, err := ParseActivity(body)
	if err != nil {
		t.Fatalf("ParseActivity failed: %v", err)
	}
	if activity.Type != "Follow" {
		t.Errorf("Expected Follow, got %s", activity.Type)
	}
	if activity.Actor != "https://peer.example/users/alice" {
		t.Errorf("Unexpected actor: %s", activity.Actor)
	}
}

func TestParseActivityMissingType(t *testing.T) {
	if _, err := ParseActivity([]byte(`{"actor":"https://x.example/users/a"}`)); err == nil {
		t.Error("Expected error for missing type")
	}
}

func TestParseActivityInvalidJSON(t *testing.T) {
	if _, err := ParseActivity([]byte(`{not json`)); err == nil {
		t.Error("Expected error for invalid JSON")
	}
}

func TestObjectURI(t *testing.T) {
	stringObj := &Activity{Object: "https://fit.example/users/bob"}
	if got := stringObj.ObjectURI(); got != "https://fit.example/users/bob" {
		t.Errorf("Unexpected object URI: %s", got)
	}

	mapObj := &Activity{Object: map[string]interface{}{
		"id":   "https://peer.example/workouts/1",
		"type": "Workout",
	}}
	if got := mapObj.ObjectURI(); got != "https://peer.example/workouts/1" {
		t.Errorf("Unexpected object URI: %s", got)
	}

	empty := &Activity{}
	if got := empty.ObjectURI(); got != "" {
		t.Errorf("Expected empty URI, got %s", got)
	}
}

func TestObjectActorID(t *testing.T) {
	// A bare URI names the object actor directly
	follow := &Activity{Type: "Follow", Object: "https://fit.example/users/bob"}
	if got := follow.objectActorID(); got != "https://fit.example/users/bob" {
		t.Errorf("Unexpected object actor: %s", got)
	}

	// An embedded object names its actor
	accept := &Activity{Type: "Accept", Object: map[string]interface{}{
		"type":   "Follow",
		"actor":  "https://peer.example/users/alice",
		"object": "https://fit.example/users/bob",
	}}
	if got := accept.objectActorID(); got != "https://peer.example/users/alice" {
		t.Errorf("Unexpected object actor: %s", got)
	}

	// Undo targets the wrapped activity's object instead
	undo := &Activity{Type: "Undo", Object: map[string]interface{}{
		"type":   "Follow",
		"actor":  "https://peer.example/users/alice",
		"object": "https://fit.example/users/bob",
	}}
	if got := undo.objectActorID(); got != "https://fit.example/users/bob" {
		t.Errorf("Undo should name the wrapped object, got %s", got)
	}
}

func TestObjectType(t *testing.T) {
	env := &Activity{Object: map[string]interface{}{"type": "Workout"}}
	if got := env.objectType(); got != "Workout" {
		t.Errorf("Expected Workout, got %s", got)
	}

	bare := &Activity{Object: "https://fit.example/users/bob"}
	if got := bare.objectType(); got != "" {
		t.Errorf("Expected empty type for bare URI, got %s", got)
	}
}
