package federation

import (
	"log"

	"github.com/fedfit/fedfit/db"
	"github.com/fedfit/fedfit/domain"
	"github.com/google/uuid"
)

// RecipientSet is the outcome of fan-out selection: shared inboxes of peer
// instances that understand full Workout objects, and shared inboxes of
// generic instances that only get the reduced note.
type RecipientSet struct {
	Peers  []string
	Others []string
}

func (rs *RecipientSet) Empty() bool {
	return len(rs.Peers) == 0 && len(rs.Others) == 0
}

// SelectRecipients computes the remote inboxes that must receive a local
// workout. Strictly local visibility levels never trigger remote delivery;
// otherwise every remote follower with an accepted request counts, collapsed
// to one target per shared inbox.
func SelectRecipients(tx *db.Tx, workout *domain.Workout) (*RecipientSet, error) {
	set := &RecipientSet{}
	switch workout.WorkoutVisibility {
	case domain.VisibilityFollowersAndRemote, domain.VisibilityPublic:
	default:
		return set, nil
	}

	err, followers := tx.ReadAcceptedRemoteFollowers(workout.ActorId)
	if err != nil {
		return nil, err
	}

	domains := make(map[uuid.UUID]*domain.Domain)
	seen := make(map[string]bool)
	for i := range followers {
		follower := &followers[i]
		dom, ok := domains[follower.DomainId]
		if !ok {
			var err error
			err, dom = tx.ReadDomainById(follower.DomainId)
			if err != nil {
				return nil, err
			}
			domains[follower.DomainId] = dom
		}
		if !dom.IsRemote {
			continue
		}

		target := follower.DeliveryTarget()
		if target == "" || seen[target] {
			continue
		}
		seen[target] = true

		if dom.IsFitnessPeer() {
			set.Peers = append(set.Peers, target)
		} else {
			set.Others = append(set.Others, target)
		}
	}
	return set, nil
}

// FanOutWorkout runs recipient selection for a created or updated local
// workout and emits at most one delivery per distinct recipient set: the
// full workout representation to peers, the note representation to the rest.
func FanOutWorkout(tx *db.Tx, actor *domain.Actor, workout *domain.Workout, activityType string) error {
	set, err := SelectRecipients(tx, workout)
	if err != nil {
		return err
	}
	if set.Empty() {
		return nil
	}

	if len(set.Peers) > 0 {
		if err := Deliver(tx, actor.Id, WorkoutActivity(activityType, actor, workout), set.Peers); err != nil {
			return err
		}
	}
	if len(set.Others) > 0 {
		if err := Deliver(tx, actor.Id, NoteActivity(activityType, actor, workout), set.Others); err != nil {
			return err
		}
	}

	log.Printf("Outbox: queued %s for workout %s to %d peer and %d other inboxes",
		activityType, workout.Id, len(set.Peers), len(set.Others))
	return nil
}

// FanOutTombstone announces the deletion of a federated workout to the same
// recipients its creation reached.
func FanOutTombstone(tx *db.Tx, actor *domain.Actor, workout *domain.Workout) error {
	set, err := SelectRecipients(tx, workout)
	if err != nil {
		return err
	}
	if set.Empty() {
		return nil
	}

	activity := TombstoneActivity(actor, workout)
	recipients := append(append([]string{}, set.Peers...), set.Others...)
	return Deliver(tx, actor.Id, activity, recipients)
}
