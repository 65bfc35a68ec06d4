package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/spigell/resume-matcher/cmd"
)

func main() {
	// API keys may live in a local .env file.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
