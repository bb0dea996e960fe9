package main

import (
	"fmt"
	"os"

	"github.com/ayo6706/exchange-brokerage/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "exchange-brokerage: %v\n", err)
		os.Exit(1)
	}
}
