package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"stakechat/cmd"
	"stakechat/database"
)

const usage = "usage: stakechat [migrate up|down [steps]|status]"

func main() {
	if len(os.Args) > 1 {
		if err := runSubcommand(os.Args[1:]); err != nil {
			log.WithError(err).Fatal("Command failed")
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		log.Info("Shutdown signal received, draining escrow service...")
	}()

	if err := cmd.Run(ctx); err != nil {
		log.WithError(err).Fatal("Escrow service stopped")
	}
}

func runSubcommand(args []string) error {
	if args[0] != "migrate" || len(args) < 2 {
		return errors.New(usage)
	}

	switch args[1] {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := "1"
		if len(args) > 2 {
			steps = args[2]
		}
		return database.MigrateDown(steps)
	case "status":
		return database.MigrateStatus()
	default:
		return fmt.Errorf("unknown migration command %q, %s", args[1], usage)
	}
}
