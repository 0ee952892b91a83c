// Package main is the entry point for the gemini-aspect CLI.
//
// Usage:
//
//	gemini-aspect [flags] <command> [args]
//
// Commands:
//
//	generate  - Generate images, padding the source to a supported ratio and cropping back
//	describe  - Reverse-engineer a reproduction prompt from reference images
//	plan      - Show the ratio match and pad/crop geometry for an image without calling the API
//	config    - Write a default configuration file
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/shouni/gemini-aspect-kit/cmd/gemini-aspect/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := commands.NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
