package main

import (
	"github.com/joho/godotenv"

	"souschef/internal/cli"
)

func main() {
	// Best effort: the API key may come from a .env file or the
	// environment proper.
	_ = godotenv.Load()

	cli.Execute()
}
