package federation

import (
	"strings"
	"testing"
	"time"

	"github.com/fedfit/fedfit/db"
	"github.com/fedfit/fedfit/domain"
	"github.com/google/uuid"
)

// setupFanOut creates a local owner plus remote followers with accepted
// follow requests. Domains get their nodeinfo software name stamped so the
// peer split can be exercised.
func setupFanOut(t *testing.T, database *db.DB) *domain.Actor {
	t.Helper()
	return createActor(t, database, "https://fit.example/users/bob", "bob", "fit.example", false)
}

func addAcceptedFollower(t *testing.T, database *db.DB, owner *domain.Actor, apID, username, domainName, software string) *domain.Actor {
	t.Helper()
	follower := createActor(t, database, apID, username, domainName, true)
	err := database.WrapTransaction(func(tx *db.Tx) error {
		if software != "" {
			errD, d := tx.ReadDomainByName(domainName)
			if errD != nil {
				return errD
			}
			if err := tx.UpdateDomainSoftware(d.Id, software); err != nil {
				return err
			}
		}
		if err, _ := tx.SendFollowRequest(follower.Id, owner.Id); err != nil {
			return err
		}
		return tx.ApproveFollowRequest(follower.Id, owner.Id)
	})
	if err != nil {
		t.Fatalf("Failed to add follower %s: %v", username, err)
	}
	return follower
}

func localWorkout(owner *domain.Actor, visibility domain.VisibilityLevel) *domain.Workout {
	id := uuid.New()
	return &domain.Workout{
		Id:                id,
		ApID:              "https://fit.example/users/bob/workouts/" + id.String(),
		ActorId:           owner.Id,
		SportId:           1,
		Title:             "evening ride",
		Distance:          20,
		Duration:          time.Hour,
		Moving:            time.Hour,
		AveSpeed:          20,
		MaxSpeed:          31,
		WorkoutDate:       time.Date(2025, 5, 10, 14, 30, 0, 0, time.UTC),
		WorkoutVisibility: visibility,
		MapVisibility:     domain.VisibilityPrivate,
		CreatedAt:         time.Now(),
	}
}

func selectRecipients(t *testing.T, database *db.DB, w *domain.Workout) *RecipientSet {
	t.Helper()
	var set *RecipientSet
	err := database.WrapTransaction(func(tx *db.Tx) error {
		var err error
		set, err = SelectRecipients(tx, w)
		return err
	})
	if err != nil {
		t.Fatalf("SelectRecipients failed: %v", err)
	}
	return set
}

func TestSelectRecipientsLocalVisibility(t *testing.T) {
	database := setupTestDB(t)
	owner := setupFanOut(t, database)
	addAcceptedFollower(t, database, owner, "https://peer.example/users/alice", "alice", "peer.example", domain.SoftwareName)

	for _, vis := range []domain.VisibilityLevel{domain.VisibilityPrivate, domain.VisibilityFollowers} {
		set := selectRecipients(t, database, localWorkout(owner, vis))
		if !set.Empty() {
			t.Errorf("Visibility %s must never reach remote inboxes", vis)
		}
	}
}

func TestSelectRecipientsPeerSplit(t *testing.T) {
	database := setupTestDB(t)
	owner := setupFanOut(t, database)
	addAcceptedFollower(t, database, owner, "https://peer.example/users/alice", "alice", "peer.example", domain.SoftwareName)
	addAcceptedFollower(t, database, owner, "https://social.example/users/carol", "carol", "social.example", "mastodon")

	set := selectRecipients(t, database, localWorkout(owner, domain.VisibilityFollowersAndRemote))
	if len(set.Peers) != 1 {
		t.Fatalf("Expected 1 peer inbox, got %d", len(set.Peers))
	}
	if set.Peers[0] != "https://peer.example/inbox" {
		t.Errorf("Unexpected peer inbox: %s", set.Peers[0])
	}
	if len(set.Others) != 1 {
		t.Fatalf("Expected 1 other inbox, got %d", len(set.Others))
	}
	if set.Others[0] != "https://social.example/inbox" {
		t.Errorf("Unexpected other inbox: %s", set.Others[0])
	}
}

func TestSelectRecipientsSharedInboxDedup(t *testing.T) {
	database := setupTestDB(t)
	owner := setupFanOut(t, database)
	addAcceptedFollower(t, database, owner, "https://peer.example/users/alice", "alice", "peer.example", domain.SoftwareName)
	addAcceptedFollower(t, database, owner, "https://peer.example/users/dave", "dave", "peer.example", domain.SoftwareName)

	set := selectRecipients(t, database, localWorkout(owner, domain.VisibilityPublic))
	if len(set.Peers) != 1 {
		t.Errorf("Two followers behind one shared inbox must collapse to one target, got %d", len(set.Peers))
	}
}

func TestSelectRecipientsIgnoresPendingAndLocal(t *testing.T) {
	database := setupTestDB(t)
	owner := setupFanOut(t, database)

	// Pending remote follower
	pending := createActor(t, database, "https://peer.example/users/alice", "alice", "peer.example", true)
	database.WrapTransaction(func(tx *db.Tx) error {
		err, _ := tx.SendFollowRequest(pending.Id, owner.Id)
		return err
	})

	// Accepted local follower
	local := createActor(t, database, "https://fit.example/users/carl", "carl", "fit.example", false)
	database.WrapTransaction(func(tx *db.Tx) error {
		if err, _ := tx.SendFollowRequest(local.Id, owner.Id); err != nil {
			return err
		}
		return tx.ApproveFollowRequest(local.Id, owner.Id)
	})

	set := selectRecipients(t, database, localWorkout(owner, domain.VisibilityPublic))
	if !set.Empty() {
		t.Error("Neither pending remote followers nor local followers are delivery targets")
	}
}

func TestFanOutWorkoutQueuesPerRepresentation(t *testing.T) {
	database := setupTestDB(t)
	owner := setupFanOut(t, database)
	addAcceptedFollower(t, database, owner, "https://peer.example/users/alice", "alice", "peer.example", domain.SoftwareName)
	addAcceptedFollower(t, database, owner, "https://social.example/users/carol", "carol", "social.example", "mastodon")

	workout := localWorkout(owner, domain.VisibilityPublic)
	err := database.WrapTransaction(func(tx *db.Tx) error {
		return FanOutWorkout(tx, owner, workout, "Create")
	})
	if err != nil {
		t.Fatalf("FanOutWorkout failed: %v", err)
	}

	err, items := database.ReadPendingDeliveries(10)
	if err != nil {
		t.Fatalf("ReadPendingDeliveries failed: %v", err)
	}
	if len(*items) != 2 {
		t.Fatalf("Expected 2 queued deliveries, got %d", len(*items))
	}

	byInbox := make(map[string]string)
	for _, item := range *items {
		byInbox[item.InboxURI] = item.ActivityJSON
	}

	peerJSON := byInbox["https://peer.example/inbox"]
	if !strings.Contains(peerJSON, `"type":"Workout"`) {
		t.Error("Peer instances must receive the full Workout object")
	}
	if !strings.Contains(peerJSON, `"duration":"1:00:00"`) {
		t.Error("Workout object must carry the wire duration format")
	}

	otherJSON := byInbox["https://social.example/inbox"]
	if !strings.Contains(otherJSON, `"type":"Note"`) {
		t.Error("Generic instances must receive the reduced Note object")
	}
	if strings.Contains(otherJSON, `"sport_id"`) {
		t.Error("The Note representation must not leak workout fields")
	}
}

func TestFanOutWorkoutNoRecipientsNoQueue(t *testing.T) {
	database := setupTestDB(t)
	owner := setupFanOut(t, database)

	workout := localWorkout(owner, domain.VisibilityPublic)
	err := database.WrapTransaction(func(tx *db.Tx) error {
		return FanOutWorkout(tx, owner, workout, "Create")
	})
	if err != nil {
		t.Fatalf("FanOutWorkout failed: %v", err)
	}

	err, items := database.ReadPendingDeliveries(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(*items) != 0 {
		t.Errorf("No followers means no deliveries, got %d", len(*items))
	}
}

func TestFanOutTombstone(t *testing.T) {
	database := setupTestDB(t)
	owner := setupFanOut(t, database)
	addAcceptedFollower(t, database, owner, "https://peer.example/users/alice", "alice", "peer.example", domain.SoftwareName)
	addAcceptedFollower(t, database, owner, "https://social.example/users/carol", "carol", "social.example", "mastodon")

	workout := localWorkout(owner, domain.VisibilityPublic)
	err := database.WrapTransaction(func(tx *db.Tx) error {
		return FanOutTombstone(tx, owner, workout)
	})
	if err != nil {
		t.Fatalf("FanOutTombstone failed: %v", err)
	}

	err, items := database.ReadPendingDeliveries(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(*items) != 2 {
		t.Fatalf("Expected the tombstone at 2 inboxes, got %d", len(*items))
	}
	for _, item := range *items {
		if !strings.Contains(item.ActivityJSON, `"type":"Tombstone"`) {
			t.Errorf("Delivery to %s is missing the Tombstone object", item.InboxURI)
		}
		if !strings.Contains(item.ActivityJSON, `"type":"Delete"`) {
			t.Errorf("Delivery to %s is not a Delete activity", item.InboxURI)
		}
	}
}

func TestPublicAddressing(t *testing.T) {
	owner := &domain.Actor{ActivityPubID: "https://fit.example/users/bob"}
	public := &domain.Workout{ApID: "https://fit.example/users/bob/workouts/1", WorkoutVisibility: domain.VisibilityPublic}
	followers := &domain.Workout{ApID: "https://fit.example/users/bob/workouts/2", WorkoutVisibility: domain.VisibilityFollowersAndRemote}

	pub := WorkoutActivity("Create", owner, public)
	to := pub["to"].([]string)
	if len(to) != 1 || to[0] != publicStream {
		t.Errorf("Public workouts address the public stream, got %v", to)
	}

	priv := WorkoutActivity("Create", owner, followers)
	to = priv["to"].([]string)
	if len(to) != 1 || to[0] != "https://fit.example/users/bob/followers" {
		t.Errorf("Follower workouts address the followers collection, got %v", to)
	}
}
