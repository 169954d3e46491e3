package web

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"

	"github.com/fedfit/fedfit/db"
	"github.com/fedfit/fedfit/domain"
	"github.com/fedfit/fedfit/federation"
	"github.com/fedfit/fedfit/util"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type workoutRequest struct {
	SportId           int64   `json:"sport_id"`
	Title             string  `json:"title"`
	Distance          float64 `json:"distance"`
	Duration          string  `json:"duration"`
	AveSpeed          float64 `json:"ave_speed"`
	MaxSpeed          float64 `json:"max_speed"`
	WorkoutDate       string  `json:"workout_date"`
	WorkoutVisibility string  `json:"workout_visibility"`
	MapVisibility     string  `json:"map_visibility"`
}

func workoutResponse(conf *util.AppConfig, w *domain.Workout) gin.H {
	return gin.H{
		"id":                 w.Id.String(),
		"ap_id":              w.ApID,
		"sport_id":           w.SportId,
		"title":              w.Title,
		"distance":           w.Distance,
		"duration":           domain.FormatDurationString(w.Duration),
		"moving":             domain.FormatDurationString(w.Moving),
		"ave_speed":          w.AveSpeed,
		"max_speed":          w.MaxSpeed,
		"workout_date":       domain.FormatWorkoutDate(w.WorkoutDate),
		"workout_visibility": string(w.WorkoutVisibility),
		"map_visibility":     string(w.MapVisibility),
	}
}

// HandleCreateWorkout records a new workout for the authenticated local
// actor. Remote-capable visibility levels federate the workout immediately.
func HandleCreateWorkout(c *gin.Context, conf *util.AppConfig) {
	actor := requireLocalActor(c)
	if actor == nil {
		return
	}

	var req workoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	workout := &domain.Workout{
		Id:                uuid.New(),
		ActorId:           actor.Id,
		WorkoutVisibility: domain.VisibilityPrivate,
		MapVisibility:     domain.VisibilityPrivate,
	}
	if err := applyWorkoutRequest(workout, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := db.GetDB().WrapTransaction(func(tx *db.Tx) error {
		if errS, _ := tx.ReadSportById(workout.SportId); errS != nil {
			return domain.ErrSportNotFound
		}
		if err := tx.CreateWorkout(workout); err != nil {
			return err
		}
		return federateWorkout(tx, conf, actor, workout, "Create")
	})
	if err != nil {
		writeWorkoutError(c, err)
		return
	}

	c.JSON(http.StatusCreated, workoutResponse(conf, workout))
}

// HandleUpdateWorkout applies a partial update to an owned workout. A
// federated workout announces the change; a workout that just turned
// remote-capable is announced as a fresh Create.
func HandleUpdateWorkout(c *gin.Context, conf *util.AppConfig) {
	actor := requireLocalActor(c)
	if actor == nil {
		return
	}
	workoutId, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Workout not found"})
		return
	}

	var req workoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	var workout *domain.Workout
	err = db.GetDB().WrapTransaction(func(tx *db.Tx) error {
		var errW error
		errW, workout = tx.ReadWorkoutById(workoutId)
		if errW == sql.ErrNoRows {
			return domain.ErrWorkoutNotFound
		}
		if errW != nil {
			return errW
		}
		if workout.ActorId != actor.Id {
			return domain.ErrWorkoutForbidden
		}
		if err := patchWorkoutRequest(workout, &req); err != nil {
			return &domain.InvalidWorkoutActivityError{Activity: "Update", Cause: err}
		}
		if err := tx.UpdateWorkout(workout); err != nil {
			return err
		}
		if workout.ApID == "" {
			return federateWorkout(tx, conf, actor, workout, "Create")
		}
		return federateWorkout(tx, conf, actor, workout, "Update")
	})
	if err != nil {
		writeWorkoutError(c, err)
		return
	}

	c.JSON(http.StatusOK, workoutResponse(conf, workout))
}

// HandleDeleteWorkout removes an owned workout. If the workout was ever
// federated, its former audience receives a Tombstone.
func HandleDeleteWorkout(c *gin.Context, conf *util.AppConfig) {
	actor := requireLocalActor(c)
	if actor == nil {
		return
	}
	workoutId, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Workout not found"})
		return
	}

	err = db.GetDB().WrapTransaction(func(tx *db.Tx) error {
		errW, workout := tx.ReadWorkoutById(workoutId)
		if errW == sql.ErrNoRows {
			return domain.ErrWorkoutNotFound
		}
		if errW != nil {
			return errW
		}
		if workout.ActorId != actor.Id {
			return domain.ErrWorkoutForbidden
		}
		if workout.ApID != "" {
			if err := federation.FanOutTombstone(tx, actor, workout); err != nil {
				return err
			}
		}
		return tx.DeleteWorkout(workout.Id)
	})
	if err != nil {
		writeWorkoutError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// HandleGetWorkout serves a single workout through the block gate and the
// visibility policy. Hidden and missing workouts are indistinguishable.
func HandleGetWorkout(c *gin.Context, conf *util.AppConfig) {
	workoutId, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Workout not found"})
		return
	}

	database := db.GetDB()
	errW, workout := database.ReadWorkoutById(workoutId)
	if errW != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Workout not found"})
		return
	}

	var viewer *domain.Viewer
	if username, password, ok := c.Request.BasicAuth(); ok {
		errA, actor := database.ReadLocalActorByUsername(username)
		if errA != nil || !util.CheckPassword(actor.PasswordHash, password) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		blocked, errB := database.IsBlocked(workout.ActorId, actor.Id)
		if errB != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load workout"})
			return
		}
		if blocked {
			c.JSON(http.StatusNotFound, gin.H{"error": "Workout not found"})
			return
		}
		follows, errF := database.IsFollowing(actor.Id, workout.ActorId)
		if errF != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load workout"})
			return
		}
		viewer = &domain.Viewer{ActorId: actor.Id, FollowsOwner: follows}
	}

	ok, _ := domain.CanViewWorkout(workout, domain.WorkoutVisibilityField, viewer)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Workout not found"})
		return
	}

	c.JSON(http.StatusOK, workoutResponse(conf, workout))
}

// federateWorkout stamps a federation id on first remote-capable publication
// and hands the workout to the fan-out selector.
func federateWorkout(tx *db.Tx, conf *util.AppConfig, actor *domain.Actor, workout *domain.Workout, activityType string) error {
	switch workout.WorkoutVisibility {
	case domain.VisibilityFollowersAndRemote, domain.VisibilityPublic:
	default:
		return nil
	}
	if workout.ApID == "" {
		workout.ApID = federation.WorkoutApID(conf, actor, workout)
		if err := tx.SetWorkoutApID(workout.Id, workout.ApID); err != nil {
			return err
		}
	}
	return federation.FanOutWorkout(tx, actor, workout, activityType)
}

// applyWorkoutRequest fills a new workout from the request, requiring the
// mandatory fields.
func applyWorkoutRequest(w *domain.Workout, req *workoutRequest) error {
	if req.SportId == 0 || req.Title == "" || req.Duration == "" || req.WorkoutDate == "" {
		return fmt.Errorf("sport_id, title, duration and workout_date are required")
	}
	return patchWorkoutRequest(w, req)
}

// patchWorkoutRequest overlays the provided fields onto an existing workout.
func patchWorkoutRequest(w *domain.Workout, req *workoutRequest) error {
	if req.SportId != 0 {
		w.SportId = req.SportId
	}
	if req.Title != "" {
		w.Title = req.Title
	}
	if req.Distance != 0 {
		w.Distance = req.Distance
	}
	if req.Duration != "" {
		d, err := domain.ParseDurationString(req.Duration)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		w.Duration = d
		if w.Moving == 0 || w.Moving > d {
			w.Moving = d
		}
	}
	if req.WorkoutDate != "" {
		t, err := domain.ParseWorkoutDate(req.WorkoutDate)
		if err != nil {
			return fmt.Errorf("invalid workout_date: %w", err)
		}
		w.WorkoutDate = t
	}
	if req.WorkoutVisibility != "" {
		if !domain.ValidVisibility(req.WorkoutVisibility) {
			return fmt.Errorf("invalid workout_visibility: %q", req.WorkoutVisibility)
		}
		w.WorkoutVisibility = domain.VisibilityLevel(req.WorkoutVisibility)
	}
	if req.MapVisibility != "" {
		if !domain.ValidVisibility(req.MapVisibility) {
			return fmt.Errorf("invalid map_visibility: %q", req.MapVisibility)
		}
		w.MapVisibility = domain.VisibilityLevel(req.MapVisibility)
	}
	if req.AveSpeed != 0 {
		w.AveSpeed = req.AveSpeed
	} else if w.AveSpeed == 0 && w.Distance > 0 && w.Duration > 0 {
		w.AveSpeed = w.Distance / w.Duration.Hours()
	}
	if req.MaxSpeed != 0 {
		w.MaxSpeed = req.MaxSpeed
	} else if w.MaxSpeed == 0 {
		w.MaxSpeed = w.AveSpeed
	}
	return nil
}

func writeWorkoutError(c *gin.Context, err error) {
	switch err {
	case domain.ErrWorkoutNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "Workout not found"})
	case domain.ErrWorkoutForbidden:
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your workout"})
	case domain.ErrSportNotFound:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown sport"})
	default:
		if _, ok := err.(*domain.InvalidWorkoutActivityError); ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("Workouts: request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}
