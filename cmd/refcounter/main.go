// Package main provides the refcounter CLI.
//
// refcounter prints the number of references in each given revision of a
// wiki project as a JSON object keyed by revision id.
//
// Usage:
//
//	refcounter wiktionary es 5006940 5006942
//	refcounter --pretty wikipedia en 1180011,1180012
//
// Configuration comes from REFCOUNTER_* environment variables and the
// optional YAML file named by REFCOUNTER_CONFIG_PATH.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
