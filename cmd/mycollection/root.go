package main

import (
	"github.com/spf13/cobra"

	"github.com/dvdlevanon/my-collection-sub000/internal/app"
)

func newRootCommand() *cobra.Command {
	var flags globalFlags
	ctx := newCommandContext(&flags)

	rootCmd := &cobra.Command{
		Use:           "mycollection",
		Short:         "Terminal client for a my-collection server",
		Long:          "Without a subcommand mycollection starts the interactive terminal UI.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd.Context(), app.Options{
				ConfigPath: flags.config,
				PrefsPath:  flags.prefs,
				Server:     flags.server,
				PollEvery:  flags.poll,
			})
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.config, "config", "c", "", "Configuration file path")
	pf.StringVar(&flags.server, "server", "", "Server host:port or URL (overrides config)")
	pf.IntVar(&flags.poll, "poll", 0, "Queue refresh interval in seconds")
	pf.StringVar(&flags.prefs, "prefs", "", "Preferences file path")
	pf.BoolVar(&flags.json, "json", false, "Print JSON instead of tables")

	rootCmd.AddCommand(newTagsCommand(ctx))
	rootCmd.AddCommand(newItemsCommand(ctx))
	rootCmd.AddCommand(newTasksCommand(ctx))
	rootCmd.AddCommand(newDirectoriesCommand(ctx))
	rootCmd.AddCommand(newSubtitlesCommand(ctx))

	return rootCmd
}
