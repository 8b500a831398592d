package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lodgecrew/lodgecrew/modules"
	testkitservices "github.com/lodgecrew/lodgecrew/modules/testkit/services"
	"github.com/lodgecrew/lodgecrew/pkg/application"
	"github.com/lodgecrew/lodgecrew/pkg/configuration"
	"github.com/lodgecrew/lodgecrew/pkg/constants"
	"github.com/lodgecrew/lodgecrew/pkg/eventbus"
)

func newSeedCmd() *cobra.Command {
	var scenario string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed a named scenario (minimal, scheduling, comprehensive)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			pool, err := connectDB(ctx)
			if err != nil {
				return withCode(exitDB, err)
			}
			defer pool.Close()

			logger := configuration.Use().Logger()
			app := application.New(&application.ApplicationOptions{
				Pool:     pool,
				EventBus: eventbus.NewEventPublisher(logger),
				Logger:   logger,
			})
			if err := modules.Load(app, modules.BuiltInModules...); err != nil {
				return withCode(exitValidation, fmt.Errorf("load modules: %w", err))
			}

			// The populate service logs through the context entry.
			ctx = context.WithValue(ctx, constants.LoggerKey, logrus.NewEntry(logger))

			if err := testkitservices.NewTestDataService(app).SeedScenario(ctx, scenario); err != nil {
				return withCode(exitValidation, err)
			}

			type seedSummary struct {
				Status   string `json:"status"`
				Scenario string `json:"scenario"`
			}
			return writeJSONLine(seedSummary{Status: "seeded", Scenario: scenario})
		},
	}

	cmd.Flags().StringVar(&scenario, "scenario", "minimal", "Scenario name")
	return cmd
}
