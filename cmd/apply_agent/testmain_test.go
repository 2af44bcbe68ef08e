package main

import (
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/zalando/go-keyring"
)

// TestMain loads .env if available and swaps the system keyring for an in-memory one.
func TestMain(m *testing.M) {
	// Try to load .env file - ignore error if it doesn't exist (CI environment)
	_ = godotenv.Load()
	keyring.MockInit()

	os.Exit(m.Run())
}
