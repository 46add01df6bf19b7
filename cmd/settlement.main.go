package main

import (
	"log"

	"settlement-service/internal/config"
	"settlement-service/internal/server"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env (optional)
	if err := godotenv.Load(); err != nil {
		log.Println("Settlement: No .env file found, relying on system env vars")
	}

	cfg := config.Load()

	// Blocks until shutdown; signal handling lives in the server.
	server.NewSettlementHTTPServer(cfg)
}
