package main

import (
	"os"

	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
