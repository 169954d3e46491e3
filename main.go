package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fedfit/fedfit/db"
	"github.com/fedfit/fedfit/federation"
	"github.com/fedfit/fedfit/util"
	"github.com/fedfit/fedfit/web"
)

func main() {

	conf, err := util.ReadConf()
	if err != nil {
		log.Fatalln(err)
	}

	fmt.Println("Configuration: ")
	fmt.Println(util.PrettyPrint(conf))

	log.Println("Running database migrations...")
	database := db.GetDB()
	if err := database.RunMigrations(); err != nil {
		log.Printf("Warning: Migration errors (may be normal if tables exist): %v", err)
	}
	log.Println("Database migrations complete")

	// The instance's own domain row must exist before any account or
	// inbound activity references it.
	err = database.WrapTransaction(func(tx *db.Tx) error {
		errD, _ := tx.EnsureLocalDomain(conf.Conf.SslDomain)
		return errD
	})
	if err != nil {
		log.Fatalln(err)
	}

	if conf.Conf.WithFederation {
		federation.StartDeliveryWorker(database)
	}

	startServing(conf)
}

func startServing(conf *util.AppConfig) {
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := web.Router(conf); err != nil {
			log.Fatalln(err)
		}
	}()

	<-done
	log.Println("Stopping server")
}
