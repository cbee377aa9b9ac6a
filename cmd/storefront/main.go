package main

import (
	"context"
	"fmt"
	"os"

	"github.com/nimburion/storefront/pkg/app"
	"github.com/nimburion/storefront/pkg/cli"
	"github.com/nimburion/storefront/pkg/config"
	"github.com/nimburion/storefront/pkg/observability/logger"
)

func main() {
	cmd := cli.NewServiceCommand(cli.ServiceCommandOptions{
		Name:        "storefront",
		Description: "Storefront REST API for users, products, categories and orders",
		EnvPrefix:   config.DefaultEnvPrefix,
		RunServer: func(ctx context.Context, cfg *config.Config, log logger.Logger) error {
			a, err := app.New(ctx, cfg, log)
			if err != nil {
				return err
			}
			return a.Run(ctx)
		},
		RunMigrations: app.Migrate,
	})

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
