package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/seatwatch/seatwatch/internal/cli"
)

func main() {
	// A missing .env file is fine; any variables it sets are optional.
	_ = godotenv.Load()

	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
