package main

import (
	"flag"
	"log"
	"net/http"

	"fleet_attendance/internal/config"
	"fleet_attendance/internal/controllers"
	"fleet_attendance/internal/logger"
	"fleet_attendance/internal/middleware"
	"fleet_attendance/internal/routes"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to config.yml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Initialize structured logging to file
	logger.Setup(cfg.LogFile, cfg.LogLevel)

	// Connect to the optional persistence sink
	db := config.InitDB()

	// Setup Gin router
	rc := controllers.NewRunController(cfg.Pipeline, db)
	jc := controllers.NewJobSiteController(cfg.Pipeline.RegistryPath)
	r := routes.SetupRouter(rc, jc)

	// Wrap with CORS
	handler := middleware.EnableCORS(r)

	log.Printf("🚀 Server running at %s", cfg.ServerAddr)
	log.Fatal(http.ListenAndServe(cfg.ServerAddr, handler))
}
