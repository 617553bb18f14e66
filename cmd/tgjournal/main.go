// Package main contains the entrypoint for the Telegram journal bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/edgard/tgjournal/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := execute(ctx, os.Args[1:])
	stop() // Ensure context cancellation is signaled before exit
	os.Exit(exitCode)
}

// execute builds the command tree and runs it. The bot's own exit code is
// kept so shutdown errors surface to the service manager.
func execute(ctx context.Context, args []string) int {
	exitCode := 0
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "tgjournal",
		Short: "Telegram bot that keeps a daily markdown journal",
		Long: `tgjournal saves every message sent to the bot into one markdown file per day.
Photos and documents are stored next to the journal and linked from the entry.
Run "tgjournal setup" once to create the configuration file.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			exitCode = run(cmd.Context(), configPath)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "Path to configuration file")

	setupCmd := &cobra.Command{
		Use:   "setup",
		Short: "Create the configuration file interactively",
		Long: `Setup asks for the Telegram bot token and the directory where journal files
are saved, checks that the directory is writable and writes the configuration file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSetup(cmd.InOrStdin(), cmd.OutOrStdout(), configPath)
		},
	}
	rootCmd.AddCommand(setupCmd)

	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return 1
	}
	return exitCode
}
