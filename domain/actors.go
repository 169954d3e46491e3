package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SoftwareName identifies this implementation in nodeinfo documents. Remote
// domains running the same software receive full workout activities instead
// of the reduced note representation.
const SoftwareName = "fedfit"

// Domain is a federation peer, keyed by hostname. There is exactly one row
// with IsRemote=false: this instance's own domain.
type Domain struct {
	Id           uuid.UUID
	Name         string
	IsRemote     bool
	IsAllowed    bool
	SoftwareName string
	CreatedAt    time.Time
}

// IsFitnessPeer reports whether the domain runs a compatible fitness
// instance, i.e. whether it understands the full Workout object.
func (d *Domain) IsFitnessPeer() bool {
	return d.SoftwareName == SoftwareName
}

// Actor is a federation identity, local or remote. Local actors carry a
// generated RSA keypair and a password hash; remote actors only carry the
// public key supplied by their home instance.
type Actor struct {
	Id                uuid.UUID
	ActivityPubID     string
	PreferredUsername string
	DomainId          uuid.UUID
	IsRemote          bool
	InboxURI          string
	SharedInboxURI    string
	PublicKeyPem      string
	PrivateKeyPem     string
	PasswordHash      string
	WorkoutsCount     int
	TotalAveSpeed     float64
	CreatedAt         time.Time
	LastFetchedAt     time.Time
}

func (a *Actor) ToString() string {
	return fmt.Sprintf("\n\tId: %s \n\tActivityPubID: %s \n\tUsername: %s \n\tRemote: %v)",
		a.Id, a.ActivityPubID, a.PreferredUsername, a.IsRemote)
}

// DeliveryTarget returns the inbox to deliver to, preferring the shared
// inbox so multiple followers on one instance collapse to one delivery.
func (a *Actor) DeliveryTarget() string {
	if a.SharedInboxURI != "" {
		return a.SharedInboxURI
	}
	return a.InboxURI
}
