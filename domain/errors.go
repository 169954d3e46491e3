package domain

import (
	"errors"
	"fmt"
)

// Expected federation failures are error values so handlers can surface them
// to the HTTP boundary without panicking; only storage corruption is fatal.
var (
	ErrActorNotFound                = errors.New("actor not found")
	ErrSportNotFound                = errors.New("sport does not exist")
	ErrNoSuchFollowRequest          = errors.New("follow request does not exist")
	ErrFollowRequestAlreadyProcessed = errors.New("follow request already approved or rejected")
	ErrFollowRequestAlreadyRejected  = errors.New("follow request already rejected")
	ErrWorkoutNotFound               = errors.New("workout not found")
	ErrWorkoutForbidden              = errors.New("workout not visible to viewer")
)

// ObjectNotFoundError reports a missing federated object, naming its kind
// and the activity that referenced it.
type ObjectNotFoundError struct {
	Kind     string
	Activity string
}

func (e *ObjectNotFoundError) Error() string {
	return fmt.Sprintf("%s not found for %s activity", e.Kind, e.Activity)
}

// ActivityMismatchError reports an activity whose actor is not allowed to
// touch the object it names, e.g. deleting someone else's workout.
type ActivityMismatchError struct {
	Activity string
	Reason   string
}

func (e *ActivityMismatchError) Error() string {
	return fmt.Sprintf("%s: %s", e.Activity, e.Reason)
}

// InvalidWorkoutActivityError wraps whatever failed while converting a wire
// workout, carrying the original cause. No partial field assignment survives
// it: the enclosing transaction rolls back.
type InvalidWorkoutActivityError struct {
	Activity string
	Cause    error
}

func (e *InvalidWorkoutActivityError) Error() string {
	return fmt.Sprintf("%s: invalid Workout activity (%v)", e.Activity, e.Cause)
}

func (e *InvalidWorkoutActivityError) Unwrap() error {
	return e.Cause
}
