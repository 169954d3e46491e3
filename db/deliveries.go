package db

import (
	"time"

	"github.com/google/uuid"
)

const (
	sqlInsertDelivery = `INSERT INTO deliveries(id, sender_actor_id, inbox_uri, activity_json, attempts, next_retry_at, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`
	sqlSelectPendingDeliveries = `SELECT id, sender_actor_id, inbox_uri, activity_json, attempts, next_retry_at, created_at FROM deliveries
                                                            WHERE next_retry_at <= ?
                                                            ORDER BY created_at ASC LIMIT ?`
	sqlUpdateDeliveryAttempt = `UPDATE deliveries SET attempts = ?, next_retry_at = ? WHERE id = ?`
	sqlDeleteDelivery        = `DELETE FROM deliveries WHERE id = ?`
)

// Delivery is one queued outbound activity for one remote inbox.
type Delivery struct {
	Id            uuid.UUID
	SenderActorId uuid.UUID
	InboxURI      string
	ActivityJSON  string
	Attempts      int
	NextRetryAt   time.Time
	CreatedAt     time.Time
}

func (tx *Tx) EnqueueDelivery(d *Delivery) error {
	_, err := tx.tx.Exec(sqlInsertDelivery, d.Id, d.SenderActorId, d.InboxURI, d.ActivityJSON,
		d.Attempts, d.NextRetryAt, d.CreatedAt)
	return err
}

func (db *DB) ReadPendingDeliveries(limit int) (error, *[]Delivery) {
	rows, err := db.db.Query(sqlSelectPendingDeliveries, time.Now(), limit)
	if err != nil {
		return err, nil
	}
	defer rows.Close()

	var items []Delivery
	for rows.Next() {
		var d Delivery
		if err := rows.Scan(&d.Id, &d.SenderActorId, &d.InboxURI, &d.ActivityJSON,
			&d.Attempts, &d.NextRetryAt, &d.CreatedAt); err != nil {
			return err, &items
		}
		items = append(items, d)
	}
	if err = rows.Err(); err != nil {
		return err, &items
	}

	return nil, &items
}

func (db *DB) UpdateDeliveryAttempt(id uuid.UUID, attempts int, nextRetryAt time.Time) error {
	return db.WrapTransaction(func(tx *Tx) error {
		_, err := tx.tx.Exec(sqlUpdateDeliveryAttempt, attempts, nextRetryAt, id)
		return err
	})
}

func (db *DB) DeleteDelivery(id uuid.UUID) error {
	return db.WrapTransaction(func(tx *Tx) error {
		_, err := tx.tx.Exec(sqlDeleteDelivery, id)
		return err
	})
}
