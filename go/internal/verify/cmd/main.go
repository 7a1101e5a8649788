package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mktsim/tickops/go/clients/convex"
	"github.com/mktsim/tickops/go/internal/verify"
)

const pausedRemediation = `The Convex deployment is paused, so every function call is rejected.
To fix:
  1. Open the Convex dashboard for this project
  2. Settings -> Pause Deployment -> Resume
  3. Re-run this check`

func main() {
	historyLimit := flag.Int("limit", 5, "number of ticks to fetch from history")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall deadline for the run")
	skipMutation := flag.Bool("skip-mutation", false, "read-only check, do not trigger a manual tick")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	deploymentURL, err := convex.ResolveDeploymentURL()
	if err != nil {
		log.Error().Err(err).Msg("backend endpoint not configured")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	log.Info().Str("deployment", deploymentURL).Msg("starting marketplace verification")

	client := convex.NewClient(deploymentURL)
	runner := verify.NewRunner(client, verify.Options{
		HistoryLimit: *historyLimit,
		SkipMutation: *skipMutation,
	})

	report, err := runner.Run(ctx)
	if err != nil {
		if convex.IsPaused(err) {
			log.Error().Err(err).Msg("deployment is paused")
			fmt.Fprintln(os.Stderr, pausedRemediation)
		} else {
			log.Error().Err(err).Msg("verification failed")
		}
		os.Exit(1)
	}

	fmt.Println(report.Summary())
}
