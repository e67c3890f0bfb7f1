package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"LexAI/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c := newCLI(app.Open)
	if err := c.execute(ctx, c.rootCmd()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
