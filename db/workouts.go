package db

import (
	"database/sql"
	"time"

	"github.com/fedfit/fedfit/domain"
	"github.com/google/uuid"
)

const (
	sqlInsertSport     = `INSERT INTO sports(id, label, is_active) VALUES (?, ?, ?)`
	sqlSelectSportById = `SELECT id, label, is_active FROM sports WHERE id = ?`

	sqlWorkoutColumns = `id, ap_id, actor_id, sport_id, title, distance, duration, moving,
                         ave_speed, max_speed, workout_date, workout_visibility, map_visibility, created_at`

	sqlInsertWorkout = `INSERT INTO workouts(id, ap_id, actor_id, sport_id, title, distance, duration, moving, ave_speed, max_speed, workout_date, workout_visibility, map_visibility, created_at)
                                                            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	sqlSelectWorkoutByApID = `SELECT ` + sqlWorkoutColumns + ` FROM workouts WHERE ap_id = ?`
	sqlSelectWorkoutById   = `SELECT ` + sqlWorkoutColumns + ` FROM workouts WHERE id = ?`
	sqlUpdateWorkout       = `UPDATE workouts SET sport_id = ?, title = ?, distance = ?, duration = ?, moving = ?, ave_speed = ?, max_speed = ?, workout_date = ?, workout_visibility = ?, map_visibility = ? WHERE id = ?`
	sqlDeleteWorkout       = `DELETE FROM workouts WHERE id = ?`
	sqlSetWorkoutApID      = `UPDATE workouts SET ap_id = ? WHERE id = ?`

	sqlSelectPublicWorkoutsByActor = `SELECT ` + sqlWorkoutColumns + ` FROM workouts
                                                            WHERE actor_id = ? AND workout_visibility = 'public'
                                                            ORDER BY workout_date DESC`
)

func scanWorkout(row rowScanner) (error, *domain.Workout) {
	var w domain.Workout
	var apID sql.NullString
	var durationSec, movingSec int64
	err := row.Scan(&w.Id, &apID, &w.ActorId, &w.SportId, &w.Title, &w.Distance,
		&durationSec, &movingSec, &w.AveSpeed, &w.MaxSpeed, &w.WorkoutDate,
		&w.WorkoutVisibility, &w.MapVisibility, &w.CreatedAt)
	if err == sql.ErrNoRows {
		return err, nil
	}
	w.ApID = apID.String
	w.Duration = time.Duration(durationSec) * time.Second
	w.Moving = time.Duration(movingSec) * time.Second
	return err, &w
}

func (tx *Tx) CreateSport(s *domain.Sport) error {
	_, err := tx.tx.Exec(sqlInsertSport, s.Id, s.Label, s.IsActive)
	return err
}

func (tx *Tx) ReadSportById(id int64) (error, *domain.Sport) {
	var s domain.Sport
	err := tx.tx.QueryRow(sqlSelectSportById, id).Scan(&s.Id, &s.Label, &s.IsActive)
	if err == sql.ErrNoRows {
		return err, nil
	}
	return err, &s
}

// CreateWorkout persists a workout and folds its average speed into the
// owner's running aggregate.
func (tx *Tx) CreateWorkout(w *domain.Workout) error {
	var apID any
	if w.ApID != "" {
		apID = w.ApID
	}
	_, err := tx.tx.Exec(sqlInsertWorkout, w.Id, apID, w.ActorId, w.SportId, w.Title,
		w.Distance, int64(w.Duration/time.Second), int64(w.Moving/time.Second),
		w.AveSpeed, w.MaxSpeed, w.WorkoutDate, w.WorkoutVisibility, w.MapVisibility, w.CreatedAt)
	if err != nil {
		return err
	}

	err, owner := tx.ReadActorById(w.ActorId)
	if err != nil {
		return err
	}
	nbWorkouts := owner.WorkoutsCount + 1
	totalAveSpeed := domain.RecomputeAverageSpeed(nbWorkouts, owner.TotalAveSpeed, w.AveSpeed)
	return tx.UpdateActorStats(owner.Id, nbWorkouts, totalAveSpeed)
}

func (tx *Tx) ReadWorkoutByApID(apID string) (error, *domain.Workout) {
	return scanWorkout(tx.tx.QueryRow(sqlSelectWorkoutByApID, apID))
}

func (tx *Tx) ReadWorkoutById(id uuid.UUID) (error, *domain.Workout) {
	return scanWorkout(tx.tx.QueryRow(sqlSelectWorkoutById, id))
}

// UpdateWorkout overwrites the mutable fields of a workout in place. Callers
// assign every field before calling; the enclosing transaction guarantees no
// partial update survives a later failure.
func (tx *Tx) UpdateWorkout(w *domain.Workout) error {
	_, err := tx.tx.Exec(sqlUpdateWorkout, w.SportId, w.Title, w.Distance,
		int64(w.Duration/time.Second), int64(w.Moving/time.Second), w.AveSpeed, w.MaxSpeed,
		w.WorkoutDate, w.WorkoutVisibility, w.MapVisibility, w.Id)
	return err
}

func (tx *Tx) DeleteWorkout(id uuid.UUID) error {
	_, err := tx.tx.Exec(sqlDeleteWorkout, id)
	return err
}

func (tx *Tx) SetWorkoutApID(id uuid.UUID, apID string) error {
	_, err := tx.tx.Exec(sqlSetWorkoutApID, apID, id)
	return err
}

// Read-only variants for the web layer.

func (db *DB) ReadWorkoutById(id uuid.UUID) (error, *domain.Workout) {
	return scanWorkout(db.db.QueryRow(sqlSelectWorkoutById, id))
}

func (db *DB) ReadPublicWorkoutsByActor(actorId uuid.UUID) (error, *[]domain.Workout) {
	rows, err := db.db.Query(sqlSelectPublicWorkoutsByActor, actorId)
	if err != nil {
		return err, nil
	}
	defer rows.Close()

	var workouts []domain.Workout
	for rows.Next() {
		err, w := scanWorkout(rows)
		if err != nil {
			return err, &workouts
		}
		workouts = append(workouts, *w)
	}
	if err = rows.Err(); err != nil {
		return err, &workouts
	}

	return nil, &workouts
}
