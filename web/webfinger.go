package web

import (
	"fmt"
	"github.com/fedfit/fedfit/db"
	"github.com/fedfit/fedfit/util"
)

func GetWebfinger(user string, conf *util.AppConfig) (error, string) {

	err, acc := db.GetDB().ReadLocalActorByUsername(user)
	if err != nil {
		return err, GetWebFingerNotFound()
	}

	username := acc.PreferredUsername

	return nil, fmt.Sprintf(
		`{
					"subject": "acct:%s@%s",

					"links": [
						{
							"rel": "self",
							"type": "application/activity+json",
							"href": "https://%s/users/%s"
						}
					]
				}`, username, conf.Conf.SslDomain,
		conf.Conf.SslDomain, username)
}

func GetWebFingerNotFound() string {
	return `{"detail":"Not Found"}`
}
