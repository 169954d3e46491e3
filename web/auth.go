package web

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/fedfit/fedfit/db"
	"github.com/fedfit/fedfit/domain"
	"github.com/fedfit/fedfit/util"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// HandleRegister bootstraps a local account: bcrypt password hash plus a
// fresh RSA keypair for outgoing HTTP signatures.
func HandleRegister(c *gin.Context, conf *util.AppConfig) {
	if conf.Conf.Closed {
		c.JSON(http.StatusForbidden, gin.H{"error": "Registration is closed"})
		return
	}

	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	hash, err := util.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}
	keypair := util.GeneratePemKeypair()

	actorURI := fmt.Sprintf("https://%s/users/%s", conf.Conf.SslDomain, req.Username)

	err = db.GetDB().WrapTransaction(func(tx *db.Tx) error {
		errD, dom := tx.EnsureLocalDomain(conf.Conf.SslDomain)
		if errD != nil {
			return errD
		}
		actor := &domain.Actor{
			Id:                uuid.New(),
			ActivityPubID:     actorURI,
			PreferredUsername: req.Username,
			DomainId:          dom.Id,
			IsRemote:          false,
			InboxURI:          fmt.Sprintf("%s/inbox", actorURI),
			SharedInboxURI:    fmt.Sprintf("https://%s/inbox", conf.Conf.SslDomain),
			PublicKeyPem:      keypair.Public,
			PrivateKeyPem:     keypair.Private,
			PasswordHash:      hash,
			CreatedAt:         time.Now(),
		}
		return tx.CreateActor(actor)
	})
	if db.IsUniqueViolation(err) {
		c.JSON(http.StatusConflict, gin.H{"error": "Username already taken"})
		return
	}
	if err != nil {
		log.Printf("Register: failed to create account %s: %v", req.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"username": req.Username, "actor": actorURI})
}

// requireLocalActor authenticates a request with HTTP basic auth against the
// local actor table. Returns nil after writing the response on failure.
func requireLocalActor(c *gin.Context) *domain.Actor {
	username, password, ok := c.Request.BasicAuth()
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return nil
	}
	err, actor := db.GetDB().ReadLocalActorByUsername(username)
	if err != nil || !util.CheckPassword(actor.PasswordHash, password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return nil
	}
	return actor
}
