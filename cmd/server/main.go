// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"codeberg.org/oliverandrich/univote/internal/config"
	"codeberg.org/oliverandrich/univote/internal/server"
)

func main() {
	cmd := &cli.Command{
		Name:   "univote",
		Usage:  "Run the institutional election service",
		Flags:  config.Flags(),
		Action: server.Run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
