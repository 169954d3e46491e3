package db

import (
	"log"

	"github.com/fedfit/fedfit/domain"
)

const sqlCreateIndices = `
	CREATE INDEX IF NOT EXISTS idx_actors_domain_id ON actors(domain_id);
	CREATE INDEX IF NOT EXISTS idx_follow_requests_followed_id ON follow_requests(followed_id);
	CREATE INDEX IF NOT EXISTS idx_follow_requests_follower_id ON follow_requests(follower_id);
	CREATE INDEX IF NOT EXISTS idx_workouts_actor_id ON workouts(actor_id);
	CREATE INDEX IF NOT EXISTS idx_workouts_workout_date ON workouts(workout_date DESC);
	CREATE INDEX IF NOT EXISTS idx_deliveries_next_retry_at ON deliveries(next_retry_at);
`

// defaultSports mirrors the sports shipped with a fresh instance. Inbound
// Create activities reference these by id.
var defaultSports = []domain.Sport{
	{Id: 1, Label: "Cycling (Sport)", IsActive: true},
	{Id: 2, Label: "Cycling (Transport)", IsActive: true},
	{Id: 3, Label: "Hiking", IsActive: true},
	{Id: 4, Label: "Mountain Biking", IsActive: true},
	{Id: 5, Label: "Running", IsActive: true},
	{Id: 6, Label: "Walking", IsActive: true},
}

// RunMigrations applies schema additions that postdate the base tables and
// seeds reference data. Safe to run on every startup.
func (db *DB) RunMigrations() error {
	log.Println("Running federation migrations...")

	return db.WrapTransaction(func(tx *Tx) error {
		if _, err := tx.tx.Exec(sqlCreateIndices); err != nil {
			return err
		}

		for _, sport := range defaultSports {
			if err := tx.CreateSport(&sport); err != nil {
				if IsUniqueViolation(err) {
					continue
				}
				return err
			}
		}
		return nil
	})
}
