package federation

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/fedfit/fedfit/db"
	"github.com/fedfit/fedfit/domain"
	"github.com/google/uuid"
)

// Dispatcher applies inbound activities against local state. Each activity
// runs inside a single transaction: a handler's side effects commit together
// or not at all.
type Dispatcher struct {
	db *db.DB
}

func NewDispatcher(database *db.DB) *Dispatcher {
	return &Dispatcher{db: database}
}

// Process routes one activity envelope to its handler. Unknown activity
// types are ignored: routing is total, but most of the vocabulary is a no-op
// for a fitness instance.
func (d *Dispatcher) Process(env *Activity) error {
	return d.db.WrapTransaction(func(tx *db.Tx) error {
		switch env.Type {
		case "Follow":
			return handleFollow(tx, env)
		case "Accept":
			return handleAccept(tx, env)
		case "Reject":
			return handleReject(tx, env)
		case "Undo":
			return handleUndo(tx, env)
		case "Create":
			return handleCreate(tx, env)
		case "Update":
			return handleUpdate(tx, env)
		case "Delete":
			return handleDelete(tx, env)
		default:
			log.Printf("Inbox: ignoring unsupported activity type: %s", env.Type)
			return nil
		}
	})
}

// handleFollow records a follow request from the (possibly brand-new) remote
// actor to the local object actor.
func handleFollow(tx *db.Tx, env *Activity) error {
	follower, err := ResolveActor(tx, env.Actor, true)
	if err != nil {
		return err
	}
	followed, err := ResolveObjectActor(tx, env)
	if err != nil {
		return err
	}

	err, _ = tx.SendFollowRequest(follower.Id, followed.Id)
	if err == domain.ErrFollowRequestAlreadyRejected {
		log.Printf("Inbox: Follow activity: follow request already rejected.")
		return err
	}
	return err
}

// handleAccept marks a pending follow request accepted. The envelope actor
// is the one who accepted; the wrapped object names the follower.
func handleAccept(tx *db.Tx, env *Activity) error {
	followed, err := ResolveActor(tx, env.Actor, false)
	if err != nil {
		return err
	}
	follower, err := ResolveObjectActor(tx, env)
	if err != nil {
		return err
	}

	if err := tx.ApproveFollowRequest(follower.Id, followed.Id); err != nil {
		log.Printf("Inbox: Accept activity: %v", err)
		return err
	}
	return nil
}

// handleReject is symmetric to Accept but marks the request rejected.
func handleReject(tx *db.Tx, env *Activity) error {
	followed, err := ResolveActor(tx, env.Actor, false)
	if err != nil {
		return err
	}
	follower, err := ResolveObjectActor(tx, env)
	if err != nil {
		return err
	}

	if err := tx.RejectFollowRequest(follower.Id, followed.Id); err != nil {
		log.Printf("Inbox: Reject activity: %v", err)
		return err
	}
	return nil
}

// handleUndo cancels a follow relationship whatever its state. Undo of any
// other wrapped object type is deliberately a no-op: the protocol defines no
// further Undo semantics here.
func handleUndo(tx *db.Tx, env *Activity) error {
	if env.objectType() != "Follow" {
		return nil
	}

	follower, err := ResolveActor(tx, env.Actor, false)
	if err != nil {
		return err
	}
	followed, err := ResolveObjectActor(tx, env)
	if err != nil {
		return err
	}

	if err := tx.UndoFollow(follower.Id, followed.Id); err != nil {
		log.Printf("Inbox: Undo activity: %v", err)
		return err
	}
	return nil
}

// handleCreate persists a remote workout. The actor must already be known:
// a Create only ever arrives after the Follow/Accept handshake.
func handleCreate(tx *db.Tx, env *Activity) error {
	actor, err := ResolveActor(tx, env.Actor, false)
	if err != nil {
		return err
	}
	if env.objectType() != "Workout" {
		return nil
	}
	obj, _ := env.ObjectMap()

	sportId, err := wireFloat(obj, "sport_id")
	if err != nil || int64(sportId) == 0 {
		return domain.ErrSportNotFound
	}
	err, _ = tx.ReadSportById(int64(sportId))
	if err == sql.ErrNoRows {
		return domain.ErrSportNotFound
	}
	if err != nil {
		return err
	}

	workout := &domain.Workout{
		Id:            uuid.New(),
		ActorId:       actor.Id,
		MapVisibility: domain.VisibilityPrivate,
		CreatedAt:     time.Now(),
	}
	if apID, ok := obj["id"].(string); ok {
		workout.ApID = apID
	}
	if err := applyWorkoutObject(workout, obj); err != nil {
		return &domain.InvalidWorkoutActivityError{Activity: "Create", Cause: err}
	}
	return tx.CreateWorkout(workout)
}

// handleDelete removes a remote workout. The protocol marks workout
// deletions by naming convention: the activity id contains "workout". That
// heuristic is fragile but must be preserved for compatibility with peers.
func handleDelete(tx *db.Tx, env *Activity) error {
	actor, err := ResolveActor(tx, env.Actor, false)
	if err != nil {
		return err
	}
	if !strings.Contains(env.ID, "workout") {
		return nil
	}

	workout, err := lookupOwnedWorkout(tx, env, actor, "Delete")
	if err != nil {
		return err
	}
	return tx.DeleteWorkout(workout.Id)
}

// handleUpdate overwrites a remote workout's fields from the incoming
// payload. Validation and assignment happen as one block inside the
// transaction, so a malformed payload leaves the stored workout untouched.
func handleUpdate(tx *db.Tx, env *Activity) error {
	actor, err := ResolveActor(tx, env.Actor, false)
	if err != nil {
		return err
	}
	if !strings.Contains(env.ID, "workout") {
		return nil
	}

	workout, err := lookupOwnedWorkout(tx, env, actor, "Update")
	if err != nil {
		return err
	}

	obj, _ := env.ObjectMap()
	if obj == nil {
		return &domain.InvalidWorkoutActivityError{Activity: "Update", Cause: fmt.Errorf("object is not a Workout")}
	}
	if err := applyWorkoutObject(workout, obj); err != nil {
		return &domain.InvalidWorkoutActivityError{Activity: "Update", Cause: err}
	}
	return tx.UpdateWorkout(workout)
}

// lookupOwnedWorkout finds the target workout by its federation id and
// verifies the acting actor owns it. Every remote mutation passes through
// this identity check.
func lookupOwnedWorkout(tx *db.Tx, env *Activity, actor *domain.Actor, activityName string) (*domain.Workout, error) {
	apID := env.ObjectURI()
	err, workout := tx.ReadWorkoutByApID(apID)
	if err == sql.ErrNoRows {
		return nil, &domain.ObjectNotFoundError{Kind: "workout", Activity: activityName}
	}
	if err != nil {
		return nil, err
	}

	if workout.ActorId != actor.Id {
		return nil, &domain.ActivityMismatchError{
			Activity: activityName,
			Reason:   "activity actor does not match workout actor",
		}
	}
	return workout, nil
}
