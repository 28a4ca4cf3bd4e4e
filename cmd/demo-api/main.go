package main

import (
	"context"
	"errors"
	"io/fs"
	"log"

	"github.com/joho/godotenv"

	"github.com/MrSnakeDoc/demo-api/internal/app"
)

func main() {
	// A .env file is optional; the real environment always wins.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("⚠️ ignoring .env: %v", err)
	}

	a, err := app.New(context.Background())
	if err != nil {
		log.Fatalf("❌ demo-api failed to start: %v", err)
	}
	if err := a.Run(); err != nil {
		log.Fatalf("❌ demo-api stopped with error: %v", err)
	}
}
