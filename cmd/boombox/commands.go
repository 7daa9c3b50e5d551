package main

import (
	"context"

	"github.com/spf13/cobra"
)

// createRootCommand создает корневую команду с настроенными подкомандами
func (app *Application) createRootCommand(ctx context.Context) *cobra.Command {
	var configPath, playlistPath string

	rootCmd := &cobra.Command{
		Use:   "boombox",
		Short: "A terminal boombox that plays a playlist of audio tracks",
		Long:  `A terminal boombox: plays a playlist of local, HTTP or S3 audio tracks with a live spectrum.`,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return app.setup(configPath, playlistPath)
		},
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.launchTUI(ctx)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "path to the config file")
	rootCmd.PersistentFlags().StringVar(&playlistPath, "playlist", "", "path to a playlist file (overrides the config)")

	// Добавляем команды, передавая в них экземпляр приложения и контекст
	rootCmd.AddCommand(app.createTUICommand(ctx))
	rootCmd.AddCommand(app.createPlayCommand(ctx))
	rootCmd.AddCommand(app.createListCommand())

	return rootCmd
}
