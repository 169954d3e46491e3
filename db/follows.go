package db

import (
	"database/sql"
	"log"
	"time"

	"github.com/fedfit/fedfit/domain"
	"github.com/google/uuid"
)

const (
	sqlInsertFollowRequest = `INSERT INTO follow_requests(id, follower_id, followed_id, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`
	sqlSelectFollowRequest = `SELECT id, follower_id, followed_id, status, created_at, updated_at FROM follow_requests
                                                            WHERE follower_id = ? AND followed_id = ?`
	sqlUpdateFollowRequest = `UPDATE follow_requests SET status = ?, updated_at = ? WHERE id = ?`
	sqlDeleteFollowRequest = `DELETE FROM follow_requests WHERE id = ?`
	sqlSelectAcceptedFollow = `SELECT count(1) FROM follow_requests WHERE follower_id = ? AND followed_id = ? AND status = 'accepted'`

	sqlSelectRemoteFollowers = `SELECT actors.id, actors.activitypub_id, actors.preferred_username, actors.domain_id, actors.is_remote,
                                                            actors.inbox_uri, actors.shared_inbox_uri, actors.public_key_pem, actors.private_key_pem,
                                                            actors.password_hash, actors.workouts_count, actors.total_ave_speed, actors.created_at, actors.last_fetched_at
                                                            FROM actors
                                                            INNER JOIN follow_requests ON follow_requests.follower_id = actors.id
                                                            WHERE follow_requests.followed_id = ?
                                                            AND follow_requests.status = 'accepted'
                                                            AND actors.is_remote = 1`

	sqlInsertBlock = `INSERT INTO blocks(id, blocker_id, blocked_id, created_at) VALUES (?, ?, ?, ?)`
	sqlDeleteBlock = `DELETE FROM blocks WHERE blocker_id = ? AND blocked_id = ?`
	sqlSelectBlock = `SELECT count(1) FROM blocks WHERE blocker_id = ? AND blocked_id = ?`
)

func scanFollowRequest(row rowScanner) (error, *domain.FollowRequest) {
	var fr domain.FollowRequest
	err := row.Scan(&fr.Id, &fr.FollowerId, &fr.FollowedId, &fr.Status, &fr.CreatedAt, &fr.UpdatedAt)
	if err == sql.ErrNoRows {
		return err, nil
	}
	return err, &fr
}

func (tx *Tx) ReadFollowRequest(followerId, followedId uuid.UUID) (error, *domain.FollowRequest) {
	return scanFollowRequest(tx.tx.QueryRow(sqlSelectFollowRequest, followerId, followedId))
}

// SendFollowRequest records a pending follow from follower to followed.
// Re-sending while a request is pending or accepted is a no-op returning the
// existing edge; a previously rejected request must be undone first.
func (tx *Tx) SendFollowRequest(followerId, followedId uuid.UUID) (error, *domain.FollowRequest) {
	err, existing := tx.ReadFollowRequest(followerId, followedId)
	if err != nil && err != sql.ErrNoRows {
		return err, nil
	}
	if existing != nil {
		if existing.Status == domain.FollowRejected {
			log.Printf("FollowGraph: follow request already rejected (%s -> %s)", followerId, followedId)
			return domain.ErrFollowRequestAlreadyRejected, nil
		}
		return nil, existing
	}

	fr := &domain.FollowRequest{
		Id:         uuid.New(),
		FollowerId: followerId,
		FollowedId: followedId,
		Status:     domain.FollowPending,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if _, err := tx.tx.Exec(sqlInsertFollowRequest, fr.Id, fr.FollowerId, fr.FollowedId, fr.Status, fr.CreatedAt, fr.UpdatedAt); err != nil {
		return err, nil
	}
	return nil, fr
}

// ApproveFollowRequest moves a pending request to accepted.
func (tx *Tx) ApproveFollowRequest(followerId, followedId uuid.UUID) error {
	return tx.processFollowRequest(followerId, followedId, domain.FollowAccepted)
}

// RejectFollowRequest moves a pending request to rejected.
func (tx *Tx) RejectFollowRequest(followerId, followedId uuid.UUID) error {
	return tx.processFollowRequest(followerId, followedId, domain.FollowRejected)
}

func (tx *Tx) processFollowRequest(followerId, followedId uuid.UUID, status domain.FollowStatus) error {
	err, fr := tx.ReadFollowRequest(followerId, followedId)
	if err == sql.ErrNoRows {
		log.Printf("FollowGraph: follow request does not exist (%s -> %s)", followerId, followedId)
		return domain.ErrNoSuchFollowRequest
	}
	if err != nil {
		return err
	}
	if fr.IsProcessed() {
		log.Printf("FollowGraph: follow request already processed (%s -> %s)", followerId, followedId)
		return domain.ErrFollowRequestAlreadyProcessed
	}

	_, err = tx.tx.Exec(sqlUpdateFollowRequest, status, time.Now(), fr.Id)
	return err
}

// UndoFollow removes the edge between the pair regardless of its state,
// returning it to "no relationship".
func (tx *Tx) UndoFollow(followerId, followedId uuid.UUID) error {
	err, fr := tx.ReadFollowRequest(followerId, followedId)
	if err == sql.ErrNoRows {
		log.Printf("FollowGraph: follow request does not exist (%s -> %s)", followerId, followedId)
		return domain.ErrNoSuchFollowRequest
	}
	if err != nil {
		return err
	}

	_, err = tx.tx.Exec(sqlDeleteFollowRequest, fr.Id)
	return err
}

func (tx *Tx) IsFollowing(followerId, followedId uuid.UUID) (bool, error) {
	var count int
	if err := tx.tx.QueryRow(sqlSelectAcceptedFollow, followerId, followedId).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// ReadAcceptedRemoteFollowers returns every remote actor with an accepted
// follow request pointed at the given owner. Used by the fan-out selector.
func (tx *Tx) ReadAcceptedRemoteFollowers(ownerId uuid.UUID) (error, []domain.Actor) {
	rows, err := tx.tx.Query(sqlSelectRemoteFollowers, ownerId)
	if err != nil {
		return err, nil
	}
	defer rows.Close()

	var followers []domain.Actor
	for rows.Next() {
		err, a := scanActor(rows)
		if err != nil {
			return err, followers
		}
		followers = append(followers, *a)
	}
	return rows.Err(), followers
}

func (tx *Tx) CreateBlock(blockerId, blockedId uuid.UUID) error {
	_, err := tx.tx.Exec(sqlInsertBlock, uuid.New(), blockerId, blockedId, time.Now())
	if err != nil && IsUniqueViolation(err) {
		return nil
	}
	return err
}

func (tx *Tx) DeleteBlock(blockerId, blockedId uuid.UUID) error {
	_, err := tx.tx.Exec(sqlDeleteBlock, blockerId, blockedId)
	return err
}

func (tx *Tx) IsBlocked(blockerId, blockedId uuid.UUID) (bool, error) {
	var count int
	if err := tx.tx.QueryRow(sqlSelectBlock, blockerId, blockedId).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// Read-only variants for the web layer.

func (db *DB) IsFollowing(followerId, followedId uuid.UUID) (bool, error) {
	var count int
	if err := db.db.QueryRow(sqlSelectAcceptedFollow, followerId, followedId).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (db *DB) IsBlocked(blockerId, blockedId uuid.UUID) (bool, error) {
	var count int
	if err := db.db.QueryRow(sqlSelectBlock, blockerId, blockedId).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
