package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"festmail/internal/campaign"
	"festmail/internal/config"
	"festmail/internal/dispatch"
	"festmail/internal/dispatchlog"
	"festmail/internal/logging"
	"festmail/internal/notifications"
	"festmail/internal/recipient"
	"festmail/internal/roster"
	"festmail/internal/transport"
)

type sendOptions struct {
	check     bool
	markAll   bool
	test      bool
	testKey   string
	assumeYes bool
	limit     int
	json      bool
	out       string
}

func newSendCommand(ctx *commandContext) *cobra.Command {
	var opts sendOptions

	cmd := &cobra.Command{
		Use:   "send <campaign>",
		Short: "Send a campaign to every recipient not yet notified",
		Long: `Send a campaign to every recipient missing from its dispatch log.

Successful sends are recorded so a rerun only reaches recipients that were
never notified or whose send failed. Use --check to preview the pending set,
--mark-all to seed the log without sending, and --test to send one message to
the configured test address. --check --out FILE saves the pending recipients
in the team_emails.json format.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd, ctx, args[0], opts)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&opts.check, "check", false, "Report pending recipients without sending")
	flags.BoolVar(&opts.markAll, "mark-all", false, "Record every recipient as notified without sending")
	flags.BoolVar(&opts.test, "test", false, "Send one message for the campaign's test key and record nothing")
	flags.StringVar(&opts.testKey, "test-key", "", "Recipient key for --test (defaults to the campaign's test_key)")
	flags.BoolVarP(&opts.assumeYes, "yes", "y", false, "Skip the confirmation prompt")
	flags.IntVar(&opts.limit, "limit", 0, "Send to at most N pending recipients")
	flags.BoolVar(&opts.json, "json", false, "Print the run result as JSON")
	flags.StringVarP(&opts.out, "out", "o", "", "With --check, write the pending recipients to FILE as a team roster")
	cmd.MarkFlagsMutuallyExclusive("check", "mark-all", "test")
	return cmd
}

func (o sendOptions) mode() dispatch.Mode {
	switch {
	case o.check:
		return dispatch.ModeCheck
	case o.markAll:
		return dispatch.ModeMarkAll
	case o.test:
		return dispatch.ModeTest
	default:
		return dispatch.ModeSend
	}
}

func runSend(cmd *cobra.Command, ctx *commandContext, name string, opts sendOptions) error {
	if opts.limit < 0 {
		return fmt.Errorf("--limit must be >= 0")
	}
	if strings.TrimSpace(opts.out) != "" && !opts.check {
		return fmt.Errorf("--out requires --check")
	}
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	mode := opts.mode()

	runCtx := logging.WithCampaign(cmd.Context(), name)
	logger := logging.WithContext(runCtx, logging.NewComponentLogger(ctx.logger(), "cli"))

	camp, err := campaign.Load(cfg, name)
	if err != nil {
		notifyFailure(runCtx, cfg, logger, name, mode, err)
		return err
	}
	if len(camp.Oversized) > 0 {
		logging.WarnWithContext(logger, "teams exceed member limit", "roster_oversized_teams",
			logging.Int("count", len(camp.Oversized)),
			logging.String("teams", strings.Join(camp.Oversized, ", ")),
			logging.String(logging.FieldImpact, "every listed address still receives the email"))
	}

	tr, err := buildTransport(cfg, mode)
	if err != nil {
		return err
	}

	var composer dispatch.Composer = camp
	if mode == dispatch.ModeTest {
		composer = camp.ForTest(cfg.Dispatch.TestTo)
	}

	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	var observer dispatch.Observer
	if !opts.json {
		observer = &progressObserver{out: out, colorize: colorize}
	}

	tracker, err := dispatch.NewTracker(dispatch.Options{
		Transport:   tr,
		Composer:    composer,
		Pacer:       dispatch.NewPacer(cfg.DispatchDelay(camp.Settings)),
		Observer:    observer,
		Logger:      ctx.logger(),
		PersistMode: cfg.Dispatch.PersistMode,
	})
	if err != nil {
		return err
	}

	testKey := strings.TrimSpace(opts.testKey)
	if testKey == "" {
		testKey = camp.Settings.TestKey
	}

	req := dispatch.Request{
		Recipients: camp.Recipients,
		Rejected:   camp.Rejected,
		LogPath:    camp.Settings.LogPath,
		Mode:       mode,
		Limit:      opts.limit,
		TestKey:    testKey,
	}
	if mode == dispatch.ModeSend && !opts.assumeYes {
		prompt := out
		if opts.json {
			prompt = cmd.ErrOrStderr()
		}
		req.Confirm = confirmPlan(cmd.InOrStdin(), prompt, camp.Name)
	}

	started := time.Now()
	result, runErr := tracker.Run(runCtx, req)
	if errors.Is(runErr, dispatch.ErrAborted) {
		fmt.Fprintln(out, "Aborted; nothing was sent.")
		return nil
	}
	if runErr != nil && result.RunID == "" {
		notifyFailure(runCtx, cfg, logger, camp.Name, mode, runErr)
		return runErr
	}

	if opts.json {
		if err := writeJSON(cmd, result); err != nil {
			return err
		}
	} else {
		renderRunResult(out, camp.Name, result, colorize)
	}

	if path := strings.TrimSpace(opts.out); path != "" && mode == dispatch.ModeCheck {
		msgOut := out
		if opts.json {
			msgOut = cmd.ErrOrStderr()
		}
		if err := writePendingRoster(msgOut, path, camp.Recipients, result.Pending); err != nil {
			return err
		}
	}

	if mode == dispatch.ModeSend || mode == dispatch.ModeTest {
		notifyRun(runCtx, cfg, logger, camp.Name, result, time.Since(started))
	}

	if runErr != nil {
		notifyFailure(runCtx, cfg, logger, camp.Name, mode, runErr)
		return runErr
	}
	if result.Summary.Failed > 0 {
		return fmt.Errorf("%d of %d sends failed; rerun to retry them", result.Summary.Failed, len(result.Attempts))
	}
	return nil
}

func buildTransport(cfg *config.Config, mode dispatch.Mode) (transport.Transport, error) {
	if mode == dispatch.ModeCheck || mode == dispatch.ModeMarkAll {
		return offlineTransport{mode: mode}, nil
	}
	if err := cfg.RequireBrevoKey(); err != nil {
		return nil, err
	}
	return transport.NewBrevo(transport.BrevoOptions{
		Endpoint: cfg.Brevo.BaseURL,
		APIKey:   cfg.Brevo.APIKey,
		Timeout:  cfg.BrevoTimeout(),
		Sender:   transport.Address{Email: cfg.Sender.FromEmail, Name: cfg.Sender.FromName},
	})
}

// offlineTransport backs modes that never send.
type offlineTransport struct {
	mode dispatch.Mode
}

func (o offlineTransport) Send(context.Context, transport.Message) (string, error) {
	return "", fmt.Errorf("sending is disabled in %s mode", o.mode)
}

func confirmPlan(in io.Reader, out io.Writer, name string) func(dispatch.Plan) (bool, error) {
	return func(plan dispatch.Plan) (bool, error) {
		notified := 0
		for _, r := range plan.Valid {
			if plan.Log.Contains(r.Key) {
				notified++
			}
		}
		fmt.Fprintf(out, "Campaign %s: %d recipients, %d already notified, %d to send now.\n",
			name, len(plan.Valid), notified, len(plan.Pending))
		fmt.Fprintf(out, "Type 'yes' to send %d emails: ", len(plan.Pending))
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, fmt.Errorf("read confirmation: %w", err)
		}
		return strings.EqualFold(strings.TrimSpace(line), "yes"), nil
	}
}

func notifyRun(ctx context.Context, cfg *config.Config, logger *slog.Logger, name string, result dispatch.Result, elapsed time.Duration) {
	summary := notifications.RunSummary{
		Campaign: name,
		Mode:     string(result.Mode),
		Sent:     result.Summary.Sent,
		Failed:   result.Summary.Failed,
		Skipped:  result.Summary.Skipped,
		Duration: elapsed,
	}
	if result.Mode == dispatch.ModeSend {
		summary.Remaining = result.Summary.Pending - result.Summary.Sent
	}
	if err := notifications.NewService(cfg).NotifyRunCompleted(ctx, summary); err != nil {
		logger.Warn("run notification failed",
			logging.String(logging.FieldEventType, "notification_failed"),
			logging.Error(err),
			logging.String(logging.FieldImpact, "run outcome is unaffected"))
	}
}

// writePendingRoster saves the recipients named by pending, in order, as a
// team roster.
func writePendingRoster(out io.Writer, path string, all []recipient.Recipient, pending []string) error {
	merged := recipient.Merge(all)
	selected := make([]recipient.Recipient, 0, len(pending))
	for _, key := range pending {
		if r, ok := recipient.Find(merged, key); ok {
			selected = append(selected, r)
		}
	}
	if err := roster.WriteJSONFile(path, roster.TeamsFromRecipients(selected)); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %d pending recipients to %s\n", len(selected), path)
	return nil
}

// alertsOperator reports whether err stops a run in a way someone must fix
// by hand before the next run.
func alertsOperator(err error) bool {
	for _, target := range []error{
		campaign.ErrSourceUnreadable,
		dispatchlog.ErrLogUnreadable,
		dispatchlog.ErrLocked,
		dispatch.ErrUnrecorded,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func notifyFailure(ctx context.Context, cfg *config.Config, logger *slog.Logger, name string, mode dispatch.Mode, runErr error) {
	if mode == dispatch.ModeCheck || !alertsOperator(runErr) {
		return
	}
	if err := notifications.NewService(cfg).NotifyError(context.WithoutCancel(ctx), runErr, "campaign "+name); err != nil {
		logger.Warn("failure notification failed",
			logging.String(logging.FieldEventType, "notification_failed"),
			logging.Error(err),
			logging.String(logging.FieldImpact, "operator is not alerted to the aborted run"))
	}
}

// progressObserver prints one line per attempt as the batch runs.
type progressObserver struct {
	out      io.Writer
	colorize bool
}

func (p *progressObserver) AttemptStarted(int, int, recipient.Recipient) {}

func (p *progressObserver) AttemptFinished(index, total int, a dispatch.Attempt) {
	label := fmt.Sprintf("[%d/%d] %s", index+1, total, a.Key)
	if a.Succeeded() {
		fmt.Fprintln(p.out, renderStatusLine(label, statusOK, "sent "+a.MessageID, p.colorize))
		return
	}
	fmt.Fprintln(p.out, renderStatusLine(label, statusError, "failed: "+a.Error, p.colorize))
}
