package federation

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/fedfit/fedfit/db"
	"github.com/fedfit/fedfit/domain"
	"github.com/google/uuid"
)

// ResolveActor looks up an actor by its ActivityPub id. When allowCreate is
// set and the actor is unknown, its domain is found-or-created from the URL
// host and a remote actor record is provisioned. The unique index on
// activitypub_id is authoritative against concurrent provisioning: a
// constraint violation means another delivery won the race, so we re-read.
func ResolveActor(tx *db.Tx, activityPubID string, allowCreate bool) (*domain.Actor, error) {
	err, actor := tx.ReadActorByAPID(activityPubID)
	if actor != nil {
		return actor, nil
	}
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	if !allowCreate {
		return nil, fmt.Errorf("%w: %s", domain.ErrActorNotFound, activityPubID)
	}

	dom, err := findOrCreateRemoteDomain(tx, activityPubID)
	if err != nil {
		return nil, err
	}

	actor = &domain.Actor{
		Id:                uuid.New(),
		ActivityPubID:     activityPubID,
		PreferredUsername: extractUsername(activityPubID),
		DomainId:          dom.Id,
		IsRemote:          true,
		InboxURI:          activityPubID + "/inbox",
		SharedInboxURI:    fmt.Sprintf("https://%s/inbox", dom.Name),
		CreatedAt:         time.Now(),
		LastFetchedAt:     time.Time{},
	}
	if err := tx.CreateActor(actor); err != nil {
		if db.IsUniqueViolation(err) {
			err2, winner := tx.ReadActorByAPID(activityPubID)
			if err2 != nil {
				return nil, err2
			}
			return winner, nil
		}
		return nil, err
	}
	return actor, nil
}

// ResolveObjectActor resolves the actor denoted by the envelope's object.
// The object actor is expected to already be known (it is the local actor in
// every inbound flow), so resolution never auto-creates.
func ResolveObjectActor(tx *db.Tx, env *Activity) (*domain.Actor, error) {
	objectActorID := env.objectActorID()
	if objectActorID == "" {
		return nil, fmt.Errorf("object %w for %s", domain.ErrActorNotFound, env.Type)
	}

	err, actor := tx.ReadActorByAPID(objectActorID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("object %w for %s", domain.ErrActorNotFound, env.Type)
	}
	if err != nil {
		return nil, err
	}
	return actor, nil
}

func findOrCreateRemoteDomain(tx *db.Tx, actorURI string) (*domain.Domain, error) {
	host, err := extractDomain(actorURI)
	if err != nil {
		return nil, err
	}

	err, dom := tx.ReadDomainByName(host)
	if dom != nil {
		return dom, nil
	}
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	dom = &domain.Domain{
		Id:        uuid.New(),
		Name:      host,
		IsRemote:  true,
		IsAllowed: true,
		CreatedAt: time.Now(),
	}
	if err := tx.CreateDomain(dom); err != nil {
		if db.IsUniqueViolation(err) {
			err2, winner := tx.ReadDomainByName(host)
			if err2 != nil {
				return nil, err2
			}
			return winner, nil
		}
		return nil, err
	}
	return dom, nil
}

// extractDomain extracts the hostname from an actor URI.
// Example: "https://trails.example/users/alice" -> "trails.example"
func extractDomain(actorURI string) (string, error) {
	parsed, err := url.Parse(actorURI)
	if err != nil || parsed.Host == "" {
		return "", fmt.Errorf("invalid actor URI: %q", actorURI)
	}
	return parsed.Host, nil
}

// extractUsername extracts the username from common actor URI formats:
// "https://example.com/users/alice" or "https://example.com/@alice".
func extractUsername(uri string) string {
	parts := strings.Split(strings.TrimSuffix(uri, "/"), "/")
	if len(parts) == 0 {
		return ""
	}
	return strings.TrimPrefix(parts[len(parts)-1], "@")
}
