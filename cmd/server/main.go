package main // Entry point package

import (
	"log" // Logging library

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iamoda/crm-lead-tracker/internal/config"     // Internal config loader
	"github.com/iamoda/crm-lead-tracker/internal/database"   // MySQL pool and migration
	"github.com/iamoda/crm-lead-tracker/internal/feed"       // change-feed hub and broker bridge
	"github.com/iamoda/crm-lead-tracker/internal/handler"    // HTTP handlers
	"github.com/iamoda/crm-lead-tracker/internal/repository" // data access layer
	"github.com/iamoda/crm-lead-tracker/internal/router"     // route registration
)

func main() {
	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database open: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("database migrate: %v", err)
	}

	// Change feed: events are applied to the local hub first, then mirrored
	// through RabbitMQ so other instances see them. A broker outage degrades
	// to local-only delivery instead of failing writes.
	hub := feed.NewHub()
	pub := feed.NewPublisher(hub, cfg.AMQPURL)
	go func() {
		if err := feed.StartConsumer(cfg.AMQPURL, pub.Origin(), hub); err != nil {
			log.Printf("changefeed consumer stopped: %v", err)
		}
	}()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	leads := repository.NewLeadRepo(db)
	notes := repository.NewNoteRepo(db)
	followUps := repository.NewFollowUpRepo(db)
	catalog := repository.NewCatalogRepo(db)
	hcRepo := repository.NewHandleCustomerRepo(db)
	feedTables := repository.NewFeedTableRepo(db)

	e := echo.New()
	router.RegisterRoutes(e) // health check

	auth := handler.NewAuthHandler(cfg, users, tokens)
	router.RegisterAuth(e, auth, cfg.JWTSecret)

	crm := handler.NewCRMHandler(leads, notes, followUps, catalog, hcRepo, pub)
	stream := handler.NewStreamHandler(hub, feedTables)
	stream.Leads = leads // enables the live lead snapshot stream
	router.RegisterCRM(e, cfg, crm, stream)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
