package main

import (
	"os"

	"graphchat/cmd/graphchat"
)

func main() {
	if err := graphchat.Execute(); err != nil {
		os.Exit(1)
	}
}
