package main

import (
	"os"

	"github.com/akhlistunov-sys/config-ai-meme-bot/cmd/memebot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
