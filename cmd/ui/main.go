package main

import (
	"log"
	"net/http"
	"os"
	"path/filepath"

	"chillerdash/internal"
	"chillerdash/internal/config"
	"chillerdash/internal/container"
	"chillerdash/ui"
)

// Lightweight dashboard on chi with in-memory records, for trying the upload
// flow without a database
func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	uploadDir, err := os.MkdirTemp("", "chillerdash-uploads-")
	if err != nil {
		log.Fatalf("Failed to create upload directory: %v", err)
	}
	defer os.RemoveAll(uploadDir)

	appConfig := &config.Config{
		Server: config.ServerConfig{Port: port},
		Upload: config.UploadConfig{
			Dir:           filepath.Clean(uploadDir),
			MaxBytes:      50 * 1024 * 1024,
			PreviewRows:   20,
			MaxConcurrent: 2,
		},
	}

	logger := internal.NewLogger(internal.ParseLogLevel(os.Getenv("LOG_LEVEL")))
	c, err := container.New(appConfig, logger)
	if err != nil {
		log.Fatalf("Failed to create container: %v", err)
	}
	if err := c.InitInMemory(); err != nil {
		log.Fatalf("Failed to initialize dashboard: %v", err)
	}

	app := ui.NewApp(c.Dashboard, c.Registry, logger)

	log.Printf("Starting Chiller Energy Dashboard (lite) on http://localhost:%s", port)
	log.Printf("Uploads are kept in %s until exit", uploadDir)
	if err := http.ListenAndServe(":"+port, app); err != nil {
		log.Fatal(err)
	}
}
