package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"festmail/internal/dispatchlog"
	"festmail/internal/logging"
)

func newLogCommand(ctx *commandContext) *cobra.Command {
	logCmd := &cobra.Command{
		Use:   "log",
		Short: "Inspect and repair campaign dispatch logs",
	}

	logCmd.AddCommand(newLogShowCommand(ctx))
	logCmd.AddCommand(newLogResetCommand(ctx))

	return logCmd
}

func newLogShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <campaign>",
		Short: "List recipients recorded as notified",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			settings, err := cfg.Campaign(args[0])
			if err != nil {
				return err
			}
			log, err := dispatchlog.Load(settings.LogPath)
			if err != nil {
				return err
			}

			if jsonOutput {
				data, err := dispatchlog.Encode(log)
				if err != nil {
					return err
				}
				return writeRawJSON(cmd, data)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Log: %s\n", settings.LogPath)
			fmt.Fprintf(out, "Notified: %d\n", log.Len())
			if ts := log.LastUpdated(); ts != nil {
				fmt.Fprintf(out, "Last updated: %s\n", ts.Local().Format(time.DateTime))
			} else {
				fmt.Fprintln(out, "Last updated: never")
			}
			if log.Len() == 0 {
				return nil
			}
			fmt.Fprintln(out, renderKeyTable("Recipient", log.Keys()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the log file contents as JSON")
	return cmd
}

func newLogResetCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "reset <campaign> [recipient...]",
		Short: "Remove recipients from a dispatch log so they are sent again",
		Long: `Remove recipients from a dispatch log so the next send reaches them again.

Name the recipient keys to forget, or pass --all to clear the log. The log is
locked for the duration so a concurrent send cannot interleave.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := args[1:]
			if all == (len(keys) > 0) {
				return errors.New("name recipients to reset or pass --all (not both)")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			settings, err := cfg.Campaign(args[0])
			if err != nil {
				return err
			}

			lock, err := dispatchlog.Lock(settings.LogPath)
			if err != nil {
				return err
			}
			defer lock.Release()

			log, err := dispatchlog.Load(settings.LogPath)
			if err != nil {
				return err
			}
			if all {
				keys = log.Keys()
			}
			next, removed := dispatchlog.Remove(log, keys, time.Now())

			out := cmd.OutOrStdout()
			if len(removed) == 0 {
				fmt.Fprintln(out, "No matching recipients in the log; nothing changed")
				return nil
			}
			if err := dispatchlog.Persist(settings.LogPath, next); err != nil {
				return err
			}

			logger := logging.NewComponentLogger(ctx.logger(), "cli")
			logger.Info("dispatch log reset",
				logging.String(logging.FieldCampaign, args[0]),
				logging.String("log_path", settings.LogPath),
				logging.Int("removed", len(removed)),
				logging.Int("remaining", next.Len()))

			fmt.Fprintf(out, "Removed %d of %d requested recipients from %s\n", len(removed), len(keys), settings.LogPath)
			missing := len(keys) - len(removed)
			if missing > 0 {
				fmt.Fprintf(out, "%d were not in the log\n", missing)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Remove every recipient from the log")
	return cmd
}
