package main

import (
	"log"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/bassem-o/School/config"
	"github.com/bassem-o/School/database"
	"github.com/bassem-o/School/realtime"
	"github.com/bassem-o/School/routes"
	"github.com/bassem-o/School/services"
)

func main() {
	cfg := config.Load()

	// early fail if the DB is not up
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal(err)
	}

	hub := realtime.NewHub()
	listener, err := database.Listen(cfg.ListenDSN(), hub, services.AbsenceTable, services.DelayTable)
	if err != nil {
		log.Fatalf("listen for changes: %v", err)
	}
	defer listener.Close()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORS())
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.RateLimit))))

	routes.Register(e, cfg, db, hub)

	addr := ":" + cfg.AppPort
	log.Printf("server listening at %s", addr)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
