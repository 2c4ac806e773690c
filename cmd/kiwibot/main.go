package main

import (
	"os"

	"github.com/joho/godotenv"
	_ "go.uber.org/automaxprocs"

	"github.com/jcweaver997/Kiwi/cmd/kiwibot/app"
)

func main() {
	// A .env next to the binary is optional; real environment wins.
	_ = godotenv.Load()

	if err := app.NewApp().Command().Execute(); err != nil {
		os.Exit(1)
	}
}
