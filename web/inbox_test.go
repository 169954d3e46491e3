package web

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/fedfit/fedfit/domain"
)

func TestActivityErrorStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"actor not found", domain.ErrActorNotFound, http.StatusNotFound},
		{"wrapped actor not found", fmt.Errorf("object %w for Follow", domain.ErrActorNotFound), http.StatusNotFound},
		{"sport not found", domain.ErrSportNotFound, http.StatusNotFound},
		{"no follow request", domain.ErrNoSuchFollowRequest, http.StatusNotFound},
		{"workout not found", &domain.ObjectNotFoundError{Kind: "workout", Activity: "Delete"}, http.StatusNotFound},
		{"already processed", domain.ErrFollowRequestAlreadyProcessed, http.StatusConflict},
		{"already rejected", domain.ErrFollowRequestAlreadyRejected, http.StatusConflict},
		{"actor mismatch", &domain.ActivityMismatchError{Activity: "Update", Reason: "wrong actor"}, http.StatusBadRequest},
		{"invalid workout", &domain.InvalidWorkoutActivityError{Activity: "Create", Cause: fmt.Errorf("bad date")}, http.StatusBadRequest},
		{"unexpected error", fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := activityErrorStatus(tt.err); got != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, got)
			}
		})
	}
}
