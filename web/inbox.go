package web

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/fedfit/fedfit/db"
	"github.com/fedfit/fedfit/domain"
	"github.com/fedfit/fedfit/federation"
	"github.com/fedfit/fedfit/util"
)

// HandleInbox processes incoming ActivityPub activities
func HandleInbox(w http.ResponseWriter, r *http.Request, conf *util.AppConfig) {
	// Verify HTTP signature
	signature := r.Header.Get("Signature")
	if signature == "" {
		log.Printf("Inbox: Missing HTTP signature")
		http.Error(w, "Missing signature", http.StatusUnauthorized)
		return
	}

	// Read request body
	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("Inbox: Failed to read body: %v", err)
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	activity, err := federation.ParseActivity(body)
	if err != nil {
		log.Printf("Inbox: Failed to parse activity: %v", err)
		http.Error(w, "Invalid activity", http.StatusBadRequest)
		return
	}

	log.Printf("Inbox: Received %s from %s", activity.Type, activity.Actor)

	database := db.GetDB()

	// Fetch remote actor to verify and cache
	remoteActor, err := federation.GetOrFetchActor(database, activity.Actor)
	if err != nil {
		log.Printf("Inbox: Failed to fetch actor %s: %v", activity.Actor, err)
		http.Error(w, "Failed to verify actor", http.StatusBadRequest)
		return
	}

	// Instance-level moderation gate
	errD, dom := database.ReadDomainById(remoteActor.DomainId)
	if errD != nil {
		log.Printf("Inbox: Unknown domain for actor %s: %v", activity.Actor, errD)
		http.Error(w, "Failed to verify actor", http.StatusBadRequest)
		return
	}
	if !dom.IsAllowed {
		log.Printf("Inbox: Rejected activity from blocked domain %s", dom.Name)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	// Verify HTTP signature with actor's public key
	_, err = federation.VerifyRequest(r, remoteActor.PublicKeyPem)
	if err != nil {
		log.Printf("Inbox: Signature verification failed: %v", err)
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	dispatcher := federation.NewDispatcher(database)
	if err := dispatcher.Process(activity); err != nil {
		log.Printf("Inbox: Failed to handle %s: %v", activity.Type, err)
		http.Error(w, "Failed to process activity", activityErrorStatus(err))
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// activityErrorStatus maps the processing error taxonomy onto HTTP statuses:
// missing referents are 404, conflicting state is 409, malformed payloads
// are 400, anything else is a server fault.
func activityErrorStatus(err error) int {
	var notFound *domain.ObjectNotFoundError
	var mismatch *domain.ActivityMismatchError
	var invalid *domain.InvalidWorkoutActivityError

	switch {
	case errors.Is(err, domain.ErrActorNotFound),
		errors.Is(err, domain.ErrSportNotFound),
		errors.Is(err, domain.ErrNoSuchFollowRequest),
		errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrFollowRequestAlreadyProcessed),
		errors.Is(err, domain.ErrFollowRequestAlreadyRejected):
		return http.StatusConflict
	case errors.As(err, &mismatch), errors.As(err, &invalid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
