package federation

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fedfit/fedfit/db"
	"github.com/fedfit/fedfit/domain"
	"github.com/google/uuid"
)

// ActorDocument is the JSON structure of a remote actor.
type ActorDocument struct {
	Context           interface{} `json:"@context"`
	ID                string      `json:"id"`
	Type              string      `json:"type"`
	PreferredUsername string      `json:"preferredUsername"`
	Inbox             string      `json:"inbox"`
	Outbox            string      `json:"outbox"`
	Endpoints         struct {
		SharedInbox string `json:"sharedInbox"`
	} `json:"endpoints"`
	PublicKey struct {
		ID           string `json:"id"`
		Owner        string `json:"owner"`
		PublicKeyPem string `json:"publicKeyPem"`
	} `json:"publicKey"`
}

// FetchRemoteActor fetches an actor document from its home instance and
// refreshes the local record with inbox URIs and key material. The actor row
// itself is provisioned by the directory; this fills in what only the remote
// server knows.
func FetchRemoteActor(database *db.DB, actorURI string) (*domain.Actor, error) {
	doc, err := fetchActorDocument(actorURI)
	if err != nil {
		return nil, err
	}

	var actor *domain.Actor
	err = database.WrapTransaction(func(tx *db.Tx) error {
		var err error
		actor, err = ResolveActor(tx, doc.ID, true)
		if err != nil {
			return err
		}

		actor.InboxURI = doc.Inbox
		if doc.Endpoints.SharedInbox != "" {
			actor.SharedInboxURI = doc.Endpoints.SharedInbox
		}
		actor.PublicKeyPem = doc.PublicKey.PublicKeyPem
		actor.LastFetchedAt = time.Now()
		return tx.UpdateRemoteActor(actor)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store remote actor: %w", err)
	}

	// Record the peer's software once per domain so fan-out can decide
	// between the full workout and the note representation.
	go detectDomainSoftware(database, actor.DomainId)

	return actor, nil
}

// GetOrFetchActor returns the actor from the local directory, fetching from
// the remote instance when unknown or stale (older than 24 hours).
func GetOrFetchActor(database *db.DB, actorURI string) (*domain.Actor, error) {
	err, cached := database.ReadActorByAPID(actorURI)
	if err == nil && cached != nil {
		if !cached.IsRemote || time.Since(cached.LastFetchedAt) < 24*time.Hour {
			return cached, nil
		}
	}

	return FetchRemoteActor(database, actorURI)
}

func fetchActorDocument(actorURI string) (*ActorDocument, error) {
	req, err := http.NewRequest("GET", actorURI, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/activity+json")
	req.Header.Set("User-Agent", userAgent)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("actor fetch failed with status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var doc ActorDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse actor JSON: %w", err)
	}

	if doc.ID == "" || doc.Inbox == "" || doc.PublicKey.PublicKeyPem == "" {
		return nil, fmt.Errorf("actor missing required fields")
	}

	return &doc, nil
}

// detectDomainSoftware asks a domain's nodeinfo endpoint what software it
// runs. Best effort: a domain with unknown software is simply not a peer.
func detectDomainSoftware(database *db.DB, domainId uuid.UUID) {
	database.WrapTransaction(func(tx *db.Tx) error {
		err, dom := tx.ReadDomainById(domainId)
		if err != nil {
			return err
		}
		if dom.SoftwareName != "" {
			return nil
		}

		software, err := fetchNodeInfoSoftware(dom.Name)
		if err != nil {
			return nil
		}
		return tx.UpdateDomainSoftware(dom.Id, software)
	})
}

func fetchNodeInfoSoftware(host string) (string, error) {
	client := &http.Client{Timeout: 10 * time.Second}

	var discovery struct {
		Links []struct {
			Rel  string `json:"rel"`
			Href string `json:"href"`
		} `json:"links"`
	}
	if err := getJSON(client, fmt.Sprintf("https://%s/.well-known/nodeinfo", host), &discovery); err != nil {
		return "", err
	}
	if len(discovery.Links) == 0 {
		return "", fmt.Errorf("no nodeinfo links for %s", host)
	}

	var nodeinfo struct {
		Software struct {
			Name string `json:"name"`
		} `json:"software"`
	}
	if err := getJSON(client, discovery.Links[0].Href, &nodeinfo); err != nil {
		return "", err
	}
	if nodeinfo.Software.Name == "" {
		return "", fmt.Errorf("nodeinfo for %s has no software name", host)
	}
	return nodeinfo.Software.Name, nil
}

func getJSON(client *http.Client, url string, v interface{}) error {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
