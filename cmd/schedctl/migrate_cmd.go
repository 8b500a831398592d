package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lodgecrew/lodgecrew/modules"
	"github.com/lodgecrew/lodgecrew/pkg/application"
	"github.com/lodgecrew/lodgecrew/pkg/configuration"
	"github.com/lodgecrew/lodgecrew/pkg/eventbus"
)

func newMigrateCmd() *cobra.Command {
	var down bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply all module migrations to the configured database",
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

			if down {
				if err := app.Migrations().Rollback(ctx); err != nil {
					return withCode(exitDB, err)
				}
			} else {
				if err := app.Migrations().Run(ctx); err != nil {
					return withCode(exitDB, err)
				}
			}

			type migrateSummary struct {
				Status  string   `json:"status"`
				Schemas []string `json:"schemas"`
			}
			status := "migrated"
			if down {
				status = "rolled_back"
			}
			return writeJSONLine(migrateSummary{
				Status:  status,
				Schemas: app.Migrations().SchemaDirs(),
			})
		},
	}

	cmd.Flags().BoolVar(&down, "down", false, "Roll back one migration per schema instead of applying")
	return cmd
}
