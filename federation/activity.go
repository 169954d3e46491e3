package federation

import (
	"encoding/json"
	"fmt"
)

// Activity represents a generic inbound or outbound activity envelope. The
// object field is either a bare URI string (Follow, some Deletes) or a full
// embedded object (Create, Update, Undo).
type Activity struct {
	Context interface{} `json:"@context"`
	ID      string      `json:"id"`
	Type    string      `json:"type"`
	Actor   string      `json:"actor"`
	Object  interface{} `json:"object"`
}

// ParseActivity decodes one activity envelope from a raw request body.
func ParseActivity(body []byte) (*Activity, error) {
	var activity Activity
	if err := json.Unmarshal(body, &activity); err != nil {
		return nil, fmt.Errorf("failed to parse activity: %w", err)
	}
	if activity.Type == "" {
		return nil, fmt.Errorf("activity missing type field")
	}
	return &activity, nil
}

// ObjectMap returns the embedded object when the envelope carries one.
func (a *Activity) ObjectMap() (map[string]interface{}, bool) {
	obj, ok := a.Object.(map[string]interface{})
	return obj, ok
}

// ObjectURI extracts the URI naming the activity's object, whichever shape
// the object field has.
func (a *Activity) ObjectURI() string {
	switch obj := a.Object.(type) {
	case string:
		return obj
	case map[string]interface{}:
		if id, ok := obj["id"].(string); ok {
			return id
		}
	}
	return ""
}

// objectActorID returns the URI of the "object actor": the object itself
// when it is a plain string, the wrapped activity's object for Undo, and the
// embedded object's actor otherwise.
func (a *Activity) objectActorID() string {
	switch obj := a.Object.(type) {
	case string:
		return obj
	case map[string]interface{}:
		key := "actor"
		if a.Type == "Undo" {
			key = "object"
		}
		if id, ok := obj[key].(string); ok {
			return id
		}
	}
	return ""
}

// objectType returns the embedded object's type, or the empty string when
// the object is a bare URI.
func (a *Activity) objectType() string {
	if obj, ok := a.ObjectMap(); ok {
		if t, ok := obj["type"].(string); ok {
			return t
		}
	}
	return ""
}
