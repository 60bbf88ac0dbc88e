package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"festmail/internal/config"
	"festmail/internal/roster"
)

func newRosterCommand(ctx *commandContext) *cobra.Command {
	rosterCmd := &cobra.Command{
		Use:   "roster",
		Short: "Build recipient rosters from registration and payment sheets",
	}

	rosterCmd.AddCommand(newRosterTeamsCommand(ctx))
	rosterCmd.AddCommand(newRosterUniversitiesCommand(ctx))
	rosterCmd.AddCommand(newRosterPaymentsCommand())
	rosterCmd.AddCommand(newRosterSlotsCommand())
	rosterCmd.AddCommand(newRosterSplitCommand())
	rosterCmd.AddCommand(newRosterCountsCommand())
	rosterCmd.AddCommand(newRosterFixBkashCommand())

	return rosterCmd
}

func newRosterTeamsCommand(ctx *commandContext) *cobra.Command {
	var csvPath, outPath string

	cmd := &cobra.Command{
		Use:   "teams",
		Short: "Extract team_emails.json from a team registration CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var report roster.TeamReport
			err = withCSV(csvPath, func(r io.Reader) error {
				var err error
				report, err = roster.ExtractTeams(r, teamOptions(cfg))
				return err
			})
			if err != nil {
				return err
			}
			if err := roster.WriteJSONFile(outPath, report.Teams); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fmt.Fprintf(out, "Wrote %d teams (%d addresses) to %s\n", len(report.Teams), roster.EmailCount(report.Teams), outPath)
			if report.Merged > 0 {
				fmt.Fprintf(out, "Merged %d duplicate submissions\n", report.Merged)
			}
			for _, name := range report.Oversized {
				fmt.Fprintln(out, renderStatusLine(name, statusWarn,
					fmt.Sprintf("more than %d members", cfg.Roster.MaxTeamMembers), colorize))
			}
			for _, rej := range report.Dropped {
				fmt.Fprintln(out, renderStatusLine(rej.Key, statusWarn, rej.Reason, colorize))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Team registration CSV export")
	cmd.Flags().StringVar(&outPath, "out", "team_emails.json", "Output roster file")
	_ = cmd.MarkFlagRequired("csv")
	return cmd
}

func newRosterUniversitiesCommand(ctx *commandContext) *cobra.Command {
	var csvPath, outPath, groupsPath string

	cmd := &cobra.Command{
		Use:   "universities",
		Short: "Group teams by university into university_teams.json",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var unis []roster.University
			err = withCSV(csvPath, func(r io.Reader) error {
				var err error
				unis, err = roster.GroupUniversities(r, roster.UniversityOptions{
					UniversityColumn: cfg.Roster.UniversityColumn,
					TeamNameColumn:   cfg.Roster.TeamNameColumn,
					CoachEmailColumn: cfg.Roster.CoachEmailColumn,
					Typos:            cfg.Roster.UniversityTypos,
				})
				return err
			})
			if err != nil {
				return err
			}
			if err := roster.WriteJSONFile(outPath, unis); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %d universities (%d teams) to %s\n", len(unis), roster.TeamTotal(unis), outPath)

			if groupsPath != "" {
				data, err := roster.EncodeGroupsCSV(unis)
				if err != nil {
					return err
				}
				if err := roster.WriteCSVFile(groupsPath, data); err != nil {
					return err
				}
				fmt.Fprintf(out, "Wrote university groups to %s\n", groupsPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Preliminary registration CSV export")
	cmd.Flags().StringVar(&outPath, "out", "university_teams.json", "Output roster file")
	cmd.Flags().StringVar(&groupsPath, "groups-csv", "", "Also write a University,Team Name,Coach Email CSV")
	_ = cmd.MarkFlagRequired("csv")
	return cmd
}

func newRosterPaymentsCommand() *cobra.Command {
	var csvPath, jsonPath, outPath string

	cmd := &cobra.Command{
		Use:   "payments",
		Short: "Attach bKash payment details to university_teams.json",
		RunE: func(cmd *cobra.Command, args []string) error {
			payments, unis, err := loadPaymentsAndUniversities(csvPath, jsonPath)
			if err != nil {
				return err
			}
			merged, unmatched := roster.MergePayments(unis, payments)
			target := outPath
			if target == "" {
				target = jsonPath
			}
			if err := roster.WriteJSONFile(target, merged); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Updated %d of %d universities with payment info in %s\n",
				len(merged)-len(unmatched), len(merged), target)
			printUnmatched(out, "No payment row for", roster.Suggest(unmatched, roster.PaymentNames(payments)))
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "Final_Slot_With_Bkash.csv", "Payment sheet CSV")
	cmd.Flags().StringVar(&jsonPath, "json", "university_teams.json", "University roster to update")
	cmd.Flags().StringVar(&outPath, "out", "", "Output file (defaults to updating --json in place)")
	return cmd
}

func newRosterSlotsCommand() *cobra.Command {
	var csvPath, jsonPath, summaryPath string

	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Apply allocated slot counts to university_teams.json",
		RunE: func(cmd *cobra.Command, args []string) error {
			var slots map[string]int
			err := withCSV(csvPath, func(r io.Reader) error {
				var err error
				slots, err = roster.LoadSlots(r)
				return err
			})
			if err != nil {
				return err
			}
			unis, err := roster.ReadUniversitiesFile(jsonPath)
			if err != nil {
				return err
			}
			updated, orphans := roster.ApplySlots(unis, slots)
			if err := roster.WriteJSONFile(jsonPath, updated); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			total := 0
			for _, u := range updated {
				total += u.Slots()
			}
			fmt.Fprintf(out, "Applied %d slots across %d universities in %s\n", total, len(updated), jsonPath)
			printUnmatched(out, "Slot row matches no university", roster.Suggest(orphans, roster.UniversityNames(updated)))

			if summaryPath != "" {
				data, err := roster.EncodeSlotSummaryCSV(updated)
				if err != nil {
					return err
				}
				if err := roster.WriteCSVFile(summaryPath, data); err != nil {
					return err
				}
				fmt.Fprintf(out, "Wrote slot summary to %s\n", summaryPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "final_slot.csv", "University,slots CSV")
	cmd.Flags().StringVar(&jsonPath, "json", "university_teams.json", "University roster to update in place")
	cmd.Flags().StringVar(&summaryPath, "summary", "", "Also write a University,Teams (Applied),Allocated Slots CSV")
	return cmd
}

func newRosterSplitCommand() *cobra.Command {
	var csvPath, jsonPath, withPaymentPath, zeroSlotsPath string

	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split universities into slotted (with payment details) and zero-slot rosters",
		RunE: func(cmd *cobra.Command, args []string) error {
			payments, unis, err := loadPaymentsAndUniversities(csvPath, jsonPath)
			if err != nil {
				return err
			}
			withPayment, zeroSlots, unmatched := roster.SplitBySlots(unis, payments)
			if err := roster.WriteJSONFile(withPaymentPath, withPayment); err != nil {
				return err
			}
			if err := roster.WriteJSONFile(zeroSlotsPath, zeroSlots); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			rows := [][]string{
				{"With slots", strconv.Itoa(len(withPayment)), withPaymentPath},
				{"Zero slots", strconv.Itoa(len(zeroSlots)), zeroSlotsPath},
			}
			fmt.Fprintln(out, renderTable([]string{"Group", "Universities", "File"}, rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft}))
			printUnmatched(out, "Slotted university without payment row", roster.Suggest(unmatched, roster.PaymentNames(payments)))
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "Final_Slot_With_Bkash.csv", "Payment sheet CSV")
	cmd.Flags().StringVar(&jsonPath, "json", "university_teams.json", "University roster to split")
	cmd.Flags().StringVar(&withPaymentPath, "with-payment", "university_teams_with_payment.json", "Output for universities with slots")
	cmd.Flags().StringVar(&zeroSlotsPath, "zero-slots", "university_teams_zero_slots.json", "Output for universities without slots")
	return cmd
}

func newRosterCountsCommand() *cobra.Command {
	var jsonPath, outPath string

	cmd := &cobra.Command{
		Use:   "counts",
		Short: "Write per-university team counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			unis, err := roster.ReadUniversitiesFile(jsonPath)
			if err != nil {
				return err
			}
			data, err := roster.EncodeCountsCSV(unis)
			if err != nil {
				return err
			}
			if err := roster.WriteCSVFile(outPath, data); err != nil {
				return err
			}

			rows := make([][]string, 0, len(unis))
			for _, u := range unis {
				rows = append(rows, []string{u.University, strconv.Itoa(u.TeamCount)})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"University", "Teams"}, rows, []columnAlignment{alignLeft, alignRight}))
			fmt.Fprintf(out, "Wrote %d universities (%d teams) to %s\n", len(unis), roster.TeamTotal(unis), outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&jsonPath, "json", "university_teams.json", "University roster")
	cmd.Flags().StringVar(&outPath, "out", "uni_team_counts.csv", "Output CSV")
	return cmd
}

func newRosterFixBkashCommand() *cobra.Command {
	var outPath string
	var inplace bool

	cmd := &cobra.Command{
		Use:   "fix-bkash <input.csv>",
		Short: "Normalize bKash numbers in a payment sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			if inplace && outPath != "" {
				return errors.New("--out and --inplace are mutually exclusive")
			}
			target := outPath
			switch {
			case inplace:
				target = input
			case target == "":
				target = strings.TrimSuffix(input, filepath.Ext(input)) + "_fixed.csv"
			}

			var data []byte
			var report roster.BkashReport
			err := withCSV(input, func(r io.Reader) error {
				var err error
				data, report, err = roster.FixBkashCSV(r)
				return err
			})
			if err != nil {
				return err
			}
			if err := roster.WriteCSVFile(target, data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Processed %s: column %q, total rows=%d, changed=%d, written to %s\n",
				input, report.Column, report.Total, report.Changed, target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output CSV (defaults to <input>_fixed.csv)")
	cmd.Flags().BoolVar(&inplace, "inplace", false, "Replace the input file")
	return cmd
}

func teamOptions(cfg *config.Config) roster.TeamOptions {
	return roster.TeamOptions{
		TeamNameColumn:       cfg.Roster.TeamNameColumn,
		SubmitterEmailColumn: cfg.Roster.SubmitterEmailColumn,
		TimestampColumn:      cfg.Roster.TimestampColumn,
		MaxMembers:           cfg.Roster.MaxTeamMembers,
	}
}

func withCSV(path string, fn func(io.Reader) error) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("csv path is required")
	}
	f, err := roster.OpenCSV(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := fn(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func loadPaymentsAndUniversities(csvPath, jsonPath string) (map[string]roster.PaymentInfo, []roster.University, error) {
	var payments map[string]roster.PaymentInfo
	err := withCSV(csvPath, func(r io.Reader) error {
		var err error
		payments, err = roster.LoadPayments(r)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	unis, err := roster.ReadUniversitiesFile(jsonPath)
	if err != nil {
		return nil, nil, err
	}
	return payments, unis, nil
}

func printUnmatched(out io.Writer, label string, suggestions []roster.Suggestion) {
	colorize := shouldColorize(out)
	for _, s := range suggestions {
		message := s.Name
		if s.Closest != "" {
			message = fmt.Sprintf("%s (closest: %s)", s.Name, s.Closest)
		}
		fmt.Fprintln(out, renderStatusLine(label, statusWarn, message, colorize))
	}
}
