package web

import (
	"fmt"
	"log"
	"strings"

	"github.com/fedfit/fedfit/util"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"golang.org/x/time/rate"
)

func Router(conf *util.AppConfig) error {
	log.Printf("Starting HTTP server on %s:%d", conf.Conf.Host, conf.Conf.HttpPort)
	g := gin.Default()
	g.Use(gzip.Gzip(gzip.DefaultCompression))

	// Global rate limiter: 10 requests per second per IP, burst of 20
	globalLimiter := NewRateLimiter(rate.Limit(10), 20)
	g.Use(RateLimitMiddleware(globalLimiter))

	// Local API
	g.POST("/api/auth/register", func(c *gin.Context) {
		HandleRegister(c, conf)
	})

	g.POST("/api/workouts", func(c *gin.Context) {
		HandleCreateWorkout(c, conf)
	})

	g.PATCH("/api/workouts/:id", func(c *gin.Context) {
		HandleUpdateWorkout(c, conf)
	})

	g.DELETE("/api/workouts/:id", func(c *gin.Context) {
		HandleDeleteWorkout(c, conf)
	})

	g.GET("/api/workouts/:id", func(c *gin.Context) {
		HandleGetWorkout(c, conf)
	})

	// RSS feed of public workouts
	g.GET("/feed", func(c *gin.Context) {

		c.Header("Content-Type", "application/xml; charset=utf-8")

		username := c.Query("username")
		rss, err := GetRSS(conf, username)
		if err != nil {
			c.Render(404, render.String{Format: ""})
		} else {
			c.Render(200, render.String{Format: rss})
		}
	})

	// Federation endpoints
	if conf.Conf.WithFederation {
		// Stricter rate limit for ActivityPub endpoints: 5 req/sec per IP
		apLimiter := NewRateLimiter(rate.Limit(5), 10)

		// Max 1MB request body size for ActivityPub activities
		maxBodySize := MaxBytesMiddleware(1 * 1024 * 1024) // 1MB

		g.GET("/users/:actor", func(c *gin.Context) {

			c.Header("Content-Type", "application/activity+json; charset=utf-8")
			err, actor := GetActor(c.Param("actor"), conf)
			if err != nil {
				c.Render(404, render.String{Format: actor})
			} else {
				c.Render(200, render.String{Format: actor})
			}
		})

		// Activities carry their target in the envelope, so the shared
		// inbox and the per-actor inbox run the same pipeline.
		g.POST("/inbox", RateLimitMiddleware(apLimiter), maxBodySize, func(c *gin.Context) {
			log.Println("POST /inbox (shared inbox)")
			HandleInbox(c.Writer, c.Request, conf)
		})

		g.POST("/users/:actor/inbox", RateLimitMiddleware(apLimiter), maxBodySize, func(c *gin.Context) {
			log.Printf("POST /users/%s/inbox", c.Param("actor"))
			HandleInbox(c.Writer, c.Request, conf)
		})

		g.GET("/users/:actor/outbox", func(c *gin.Context) {
			log.Println("Get outbox..")
			c.Header("Content-Type", "application/activity+json; charset=utf-8")
			c.Render(200, render.String{Format: "{}"})
		})

		g.GET("/users/:actor/followers", func(c *gin.Context) {
			log.Println("Get followers..")
			c.Header("Content-Type", "application/activity+json; charset=utf-8")
			c.Render(200, render.String{Format: "{}"})
		})

		g.GET("/users/:actor/following", func(c *gin.Context) {
			log.Println("Get following..")
			c.Header("Content-Type", "application/activity+json; charset=utf-8")
			c.Render(200, render.String{Format: "{}"})
		})

		g.GET("/.well-known/webfinger", func(c *gin.Context) {
			c.Header("Content-Type", "application/json; charset=utf-8")

			resource := c.Query("resource")
			if resource == "" || !strings.HasPrefix(resource, "acct:") {
				c.Render(404, render.String{Format: GetWebFingerNotFound()})
			} else {
				resource = strings.TrimPrefix(resource, "acct:")
				resource = strings.TrimSuffix(resource, fmt.Sprintf("@%s", conf.Conf.SslDomain))
				err, resp := GetWebfinger(resource, conf)
				if err != nil {
					c.Render(404, render.String{Format: GetWebFingerNotFound()})
				} else {
					c.Render(200, render.String{Format: resp})
				}
			}
		})

	}
	err := g.Run(fmt.Sprintf(":%d", conf.Conf.HttpPort))
	if err != nil {
		return err
	}
	return nil
}
