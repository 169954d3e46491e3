package web

import (
	"encoding/json"
	"fmt"

	"github.com/fedfit/fedfit/db"
	"github.com/fedfit/fedfit/util"
)

type action uint

const (
	id action = iota
	inbox
	outbox
	followers
	following
	sharedInbox
)

// GetActor renders the ActivityPub actor document for a local user.
func GetActor(actor string, conf *util.AppConfig) (error, string) {
	err, acc := db.GetDB().ReadLocalActorByUsername(actor)
	if err != nil {
		return err, "{}"
	}

	username := acc.PreferredUsername
	actorURI := getIRI(conf.Conf.SslDomain, username, id)

	doc := map[string]interface{}{
		"@context": []string{
			"https://www.w3.org/ns/activitystreams",
			"https://w3id.org/security/v1",
		},
		"id":                        actorURI,
		"type":                      "Person",
		"preferredUsername":         username,
		"name":                      username,
		"inbox":                     getIRI(conf.Conf.SslDomain, username, inbox),
		"outbox":                    getIRI(conf.Conf.SslDomain, username, outbox),
		"followers":                 getIRI(conf.Conf.SslDomain, username, followers),
		"following":                 getIRI(conf.Conf.SslDomain, username, following),
		"url":                       actorURI,
		"manuallyApprovesFollowers": true,
		"discoverable":              true,
		"endpoints": map[string]string{
			"sharedInbox": getIRI(conf.Conf.SslDomain, username, sharedInbox),
		},
		"publicKey": map[string]string{
			"id":           fmt.Sprintf("%s#main-key", actorURI),
			"owner":        actorURI,
			"publicKeyPem": acc.PublicKeyPem,
		},
	}

	jsonBytes, err := json.Marshal(doc)
	if err != nil {
		return err, "{}"
	}
	return nil, string(jsonBytes)
}

func getIRI(domain string, username string, action action) string {

	prefix := fmt.Sprintf("https://%s/users/%s", domain, username)
	switch action {
	case inbox:
		return fmt.Sprintf("%s/inbox", prefix)
	case outbox:
		return fmt.Sprintf("%s/outbox", prefix)
	case followers:
		return fmt.Sprintf("%s/followers", prefix)
	case following:
		return fmt.Sprintf("%s/following", prefix)
	case id:
		return prefix
	case sharedInbox:
		return fmt.Sprintf("https://%s/inbox", domain)
	default:
		return ""
	}
}
