package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/smartrecruit/smartrecruit/cmd"
)

func main() {
	// .env is optional.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cmd.UserMessage(err))
		os.Exit(1)
	}
}
