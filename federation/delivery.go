package federation

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/fedfit/fedfit/db"
	"github.com/google/uuid"
)

const userAgent = "fedfit/1.0 ActivityPub"

// Deliver queues one copy of the activity per recipient inbox. Delivery is
// fire-and-forget from the caller's perspective: the worker below owns
// retries, and nothing here blocks on remote acceptance.
func Deliver(tx *db.Tx, senderActorId uuid.UUID, activity map[string]interface{}, recipients []string) error {
	activityJSON := mustMarshal(activity)
	for _, inboxURI := range recipients {
		item := &db.Delivery{
			Id:            uuid.New(),
			SenderActorId: senderActorId,
			InboxURI:      inboxURI,
			ActivityJSON:  activityJSON,
			NextRetryAt:   time.Now(),
			CreatedAt:     time.Now(),
		}
		if err := tx.EnqueueDelivery(item); err != nil {
			return fmt.Errorf("failed to queue delivery to %s: %w", inboxURI, err)
		}
	}
	return nil
}

// StartDeliveryWorker starts a background worker that drains the delivery
// queue with exponential backoff on failures.
func StartDeliveryWorker(database *db.DB) {
	log.Println("Starting federation delivery worker...")

	ticker := time.NewTicker(10 * time.Second)
	go func() {
		for range ticker.C {
			processDeliveryQueue(database)
		}
	}()
}

func processDeliveryQueue(database *db.DB) {
	err, items := database.ReadPendingDeliveries(50)
	if err != nil {
		log.Printf("DeliveryWorker: Failed to read queue: %v", err)
		return
	}

	if items == nil || len(*items) == 0 {
		return
	}

	log.Printf("DeliveryWorker: Processing %d pending deliveries", len(*items))

	for _, item := range *items {
		if err := deliverActivity(database, &item); err != nil {
			item.Attempts++
			backoffMinutes := []int{1, 5, 15, 60, 240, 1440}[min(item.Attempts-1, 5)]
			nextRetry := time.Now().Add(time.Duration(backoffMinutes) * time.Minute)

			if item.Attempts >= 10 {
				log.Printf("DeliveryWorker: Giving up on delivery to %s after %d attempts", item.InboxURI, item.Attempts)
				database.DeleteDelivery(item.Id)
			} else {
				log.Printf("DeliveryWorker: Delivery to %s failed (attempt %d), retry in %dm: %v",
					item.InboxURI, item.Attempts, backoffMinutes, err)
				database.UpdateDeliveryAttempt(item.Id, item.Attempts, nextRetry)
			}
		} else {
			log.Printf("DeliveryWorker: Successfully delivered to %s", item.InboxURI)
			database.DeleteDelivery(item.Id)
		}
	}
}

// deliverActivity performs one signed POST to one remote inbox.
func deliverActivity(database *db.DB, item *db.Delivery) error {
	err, sender := database.ReadActorById(item.SenderActorId)
	if err != nil {
		return fmt.Errorf("failed to load sender actor: %w", err)
	}

	privateKey, err := ParsePrivateKey(sender.PrivateKeyPem)
	if err != nil {
		return fmt.Errorf("failed to parse private key: %w", err)
	}

	body := []byte(item.ActivityJSON)
	hash := sha256.Sum256(body)
	digest := "SHA-256=" + base64.StdEncoding.EncodeToString(hash[:])

	req, err := http.NewRequest("POST", item.InboxURI, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/activity+json")
	req.Header.Set("Accept", "application/activity+json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Date", time.Now().UTC().Format(http.TimeFormat))
	req.Header.Set("Host", req.URL.Host)
	req.Header.Set("Digest", digest)

	keyID := fmt.Sprintf("%s#main-key", sender.ActivityPubID)
	if err := SignRequest(req, privateKey, keyID); err != nil {
		return fmt.Errorf("failed to sign request: %w", err)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("remote server returned status: %d", resp.StatusCode)
	}

	return nil
}

// mustMarshal marshals v to JSON, panicking on error
func mustMarshal(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("failed to marshal: %v", err))
	}
	return string(b)
}
