package web

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/fedfit/fedfit/db"
	"github.com/fedfit/fedfit/domain"
	"github.com/fedfit/fedfit/util"
	"github.com/gorilla/feeds"
)

// GetRSS renders an actor's public workouts as an RSS feed. Only PUBLIC
// workouts appear, regardless of who asks.
func GetRSS(conf *util.AppConfig, username string) (string, error) {

	if username == "" {
		return "", errors.New("username is required")
	}

	database := db.GetDB()
	err, actor := database.ReadLocalActorByUsername(username)
	if err != nil {
		log.Printf("RSS: unknown user %s: %v", username, err)
		return "", errors.New("error retrieving workouts by username")
	}

	err, workouts := database.ReadPublicWorkoutsByActor(actor.Id)
	if err != nil {
		log.Printf("RSS: could not get workouts from %s: %v", username, err)
		return "", errors.New("error retrieving workouts")
	}

	link := fmt.Sprintf("http://%s:%d/feed?username=%s", conf.Conf.Host, conf.Conf.HttpPort, username)
	email := fmt.Sprintf("%s@%s", username, util.Name)

	feed := &feeds.Feed{
		Title:       fmt.Sprintf("Fedfit Workouts - %s", username),
		Link:        &feeds.Link{Href: link},
		Description: fmt.Sprintf("public workouts of %s", username),
		Author:      &feeds.Author{Name: username, Email: email},
		Created:     time.Now(),
	}

	var feedItems []*feeds.Item
	for _, workout := range *workouts {
		feedItems = append(feedItems,
			&feeds.Item{
				Id:    workout.Id.String(),
				Title: workout.Title,
				Link:  &feeds.Link{Href: fmt.Sprintf("http://%s:%d/api/workouts/%s", conf.Conf.Host, conf.Conf.HttpPort, workout.Id)},
				Content: fmt.Sprintf("%s on %s: %.2f km in %s",
					workout.Title,
					domain.FormatWorkoutDate(workout.WorkoutDate),
					workout.Distance,
					domain.FormatDurationString(workout.Duration)),
				Author:  &feeds.Author{Name: username, Email: email},
				Created: workout.CreatedAt,
			})
	}

	feed.Items = feedItems
	return feed.ToRss()
}
