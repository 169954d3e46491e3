package db

import (
	"database/sql"
	"time"

	"github.com/fedfit/fedfit/domain"
	"github.com/google/uuid"
)

const (
	sqlInsertDomain       = `INSERT INTO domains(id, name, is_remote, is_allowed, software_name, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	sqlSelectDomainByName = `SELECT id, name, is_remote, is_allowed, software_name, created_at FROM domains WHERE name = ?`
	sqlSelectDomainById   = `SELECT id, name, is_remote, is_allowed, software_name, created_at FROM domains WHERE id = ?`
	sqlUpdateDomainSoftware = `UPDATE domains SET software_name = ? WHERE id = ?`
	sqlUpdateDomainAllowed  = `UPDATE domains SET is_allowed = ? WHERE id = ?`

	sqlActorColumns = `id, activitypub_id, preferred_username, domain_id, is_remote, inbox_uri, shared_inbox_uri,
                       public_key_pem, private_key_pem, password_hash, workouts_count, total_ave_speed, created_at, last_fetched_at`

	sqlInsertActor          = `INSERT INTO actors(id, activitypub_id, preferred_username, domain_id, is_remote, inbox_uri, shared_inbox_uri, public_key_pem, private_key_pem, password_hash, created_at, last_fetched_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	sqlSelectActorByAPID    = `SELECT ` + sqlActorColumns + ` FROM actors WHERE activitypub_id = ?`
	sqlSelectActorById      = `SELECT ` + sqlActorColumns + ` FROM actors WHERE id = ?`
	sqlSelectLocalActorByUsername = `SELECT ` + sqlActorColumns + ` FROM actors WHERE preferred_username = ? AND is_remote = 0`
	sqlUpdateActorStats     = `UPDATE actors SET workouts_count = ?, total_ave_speed = ? WHERE id = ?`
	sqlUpdateRemoteActor    = `UPDATE actors SET inbox_uri = ?, shared_inbox_uri = ?, public_key_pem = ?, last_fetched_at = ? WHERE activitypub_id = ?`
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDomain(row rowScanner) (error, *domain.Domain) {
	var d domain.Domain
	err := row.Scan(&d.Id, &d.Name, &d.IsRemote, &d.IsAllowed, &d.SoftwareName, &d.CreatedAt)
	if err == sql.ErrNoRows {
		return err, nil
	}
	return err, &d
}

func scanActor(row rowScanner) (error, *domain.Actor) {
	var a domain.Actor
	err := row.Scan(&a.Id, &a.ActivityPubID, &a.PreferredUsername, &a.DomainId, &a.IsRemote,
		&a.InboxURI, &a.SharedInboxURI, &a.PublicKeyPem, &a.PrivateKeyPem, &a.PasswordHash,
		&a.WorkoutsCount, &a.TotalAveSpeed, &a.CreatedAt, &a.LastFetchedAt)
	if err == sql.ErrNoRows {
		return err, nil
	}
	return err, &a
}

func (tx *Tx) CreateDomain(d *domain.Domain) error {
	_, err := tx.tx.Exec(sqlInsertDomain, d.Id, d.Name, d.IsRemote, d.IsAllowed, d.SoftwareName, d.CreatedAt)
	return err
}

func (tx *Tx) ReadDomainByName(name string) (error, *domain.Domain) {
	return scanDomain(tx.tx.QueryRow(sqlSelectDomainByName, name))
}

func (tx *Tx) ReadDomainById(id uuid.UUID) (error, *domain.Domain) {
	return scanDomain(tx.tx.QueryRow(sqlSelectDomainById, id))
}

func (tx *Tx) UpdateDomainSoftware(id uuid.UUID, softwareName string) error {
	_, err := tx.tx.Exec(sqlUpdateDomainSoftware, softwareName, id)
	return err
}

// EnsureLocalDomain reads the instance's own domain row, creating it on
// first boot.
func (tx *Tx) EnsureLocalDomain(name string) (error, *domain.Domain) {
	err, d := tx.ReadDomainByName(name)
	if err == nil {
		return nil, d
	}
	if err != sql.ErrNoRows {
		return err, nil
	}
	d = &domain.Domain{
		Id:           uuid.New(),
		Name:         name,
		IsRemote:     false,
		IsAllowed:    true,
		SoftwareName: domain.SoftwareName,
		CreatedAt:    time.Now(),
	}
	if err := tx.CreateDomain(d); err != nil {
		return err, nil
	}
	return nil, d
}

func (tx *Tx) CreateActor(a *domain.Actor) error {
	_, err := tx.tx.Exec(sqlInsertActor, a.Id, a.ActivityPubID, a.PreferredUsername, a.DomainId,
		a.IsRemote, a.InboxURI, a.SharedInboxURI, a.PublicKeyPem, a.PrivateKeyPem, a.PasswordHash,
		a.CreatedAt, a.LastFetchedAt)
	return err
}

func (tx *Tx) ReadActorByAPID(activityPubID string) (error, *domain.Actor) {
	return scanActor(tx.tx.QueryRow(sqlSelectActorByAPID, activityPubID))
}

func (tx *Tx) ReadActorById(id uuid.UUID) (error, *domain.Actor) {
	return scanActor(tx.tx.QueryRow(sqlSelectActorById, id))
}

func (tx *Tx) ReadLocalActorByUsername(username string) (error, *domain.Actor) {
	return scanActor(tx.tx.QueryRow(sqlSelectLocalActorByUsername, username))
}

func (tx *Tx) UpdateActorStats(id uuid.UUID, workoutsCount int, totalAveSpeed float64) error {
	_, err := tx.tx.Exec(sqlUpdateActorStats, workoutsCount, totalAveSpeed, id)
	return err
}

func (tx *Tx) UpdateRemoteActor(a *domain.Actor) error {
	_, err := tx.tx.Exec(sqlUpdateRemoteActor, a.InboxURI, a.SharedInboxURI, a.PublicKeyPem,
		time.Now(), a.ActivityPubID)
	return err
}

// Read-only variants used outside a handler transaction, e.g. by the web
// layer when serving actor documents.

func (db *DB) ReadDomainByName(name string) (error, *domain.Domain) {
	return scanDomain(db.db.QueryRow(sqlSelectDomainByName, name))
}

func (db *DB) ReadDomainById(id uuid.UUID) (error, *domain.Domain) {
	return scanDomain(db.db.QueryRow(sqlSelectDomainById, id))
}

func (db *DB) ReadActorByAPID(activityPubID string) (error, *domain.Actor) {
	return scanActor(db.db.QueryRow(sqlSelectActorByAPID, activityPubID))
}

func (db *DB) ReadActorById(id uuid.UUID) (error, *domain.Actor) {
	return scanActor(db.db.QueryRow(sqlSelectActorById, id))
}

func (db *DB) ReadLocalActorByUsername(username string) (error, *domain.Actor) {
	return scanActor(db.db.QueryRow(sqlSelectLocalActorByUsername, username))
}
