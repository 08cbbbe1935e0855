package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lorenzotomasdiez/who-am-i/internal/models"
	"github.com/lorenzotomasdiez/who-am-i/internal/openrouter"
	"github.com/lorenzotomasdiez/who-am-i/internal/output"
)

func newModelsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the free OpenRouter models",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := openrouter.NewClient(a.cfg.ResolvedAPIKey(),
				openrouter.WithBaseURL(a.cfg.BaseURL),
				openrouter.WithTimeout(a.cfg.Timeout),
				openrouter.WithLogger(a.log))

			var listing []openrouter.Model
			var err error
			thinking("fetching models", func() { listing, err = client.ListModels(cmd.Context()) })
			if err != nil {
				a.log.Warn("could not fetch models, using defaults", zap.Error(err))
				fmt.Println("Could not fetch the live listing, showing built-in defaults.")
				listing = models.DefaultFreeModels()
			}
			output.PrintModels(models.NewRegistry(listing).FreeModels())
			return nil
		},
	}
}
