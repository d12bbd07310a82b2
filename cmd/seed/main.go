package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/shokujin-wiki/shokujin-api/pkg/config"
	"github.com/shokujin-wiki/shokujin-api/pkg/db"
	"github.com/shokujin-wiki/shokujin-api/pkg/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "seed",
		Short:         "Load demo users, products, reviews and articles",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	steps := []struct {
		use, short string
		run        func(*Seeder, context.Context) error
	}{
		{"all", "Run every seed step in order", (*Seeder).All},
		{"users", "Create demo identities and users", (*Seeder).Users},
		{"products", "Create demo products", (*Seeder).Products},
		{"reviews", "Create demo reviews", (*Seeder).Reviews},
		{"articles", "Create the demo article and its product links", (*Seeder).Articles},
	}
	for _, step := range steps {
		run := step.run
		root.AddCommand(&cobra.Command{
			Use:   step.use,
			Short: step.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withSeeder(cmd.Context(), run)
			},
		})
	}
	return root
}

func withSeeder(ctx context.Context, fn func(*Seeder, context.Context) error) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logg := logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
	})

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, client.Close()) }()

	return fn(NewSeeder(client, cfg.Password, logg), ctx)
}
