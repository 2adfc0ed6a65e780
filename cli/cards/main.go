package main

import (
	"os"

	cardscmder "github.com/papercomputeco/cards/cmd/cards"
)

func main() {
	cmd := cardscmder.NewCardsCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
