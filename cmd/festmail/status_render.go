package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"festmail/internal/dispatch"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 28
	statusIndent     = "  "
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := fmt.Sprintf("[%s]", statusKindLabel(kind))
	if message != "" {
		statusText += " " + message
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// renderRunResult prints the end-of-run report: skipped recipients, the
// pending list for check runs, failures, and the summary table.
func renderRunResult(out io.Writer, name string, result dispatch.Result, colorize bool) {
	if len(result.Rejected) > 0 {
		printLines(out, renderSectionHeader("Skipped", colorize))
		for _, rej := range result.Rejected {
			fmt.Fprintln(out, renderStatusLine(rej.Key, statusWarn, rej.Reason, colorize))
		}
		fmt.Fprintln(out)
	}

	switch result.Mode {
	case dispatch.ModeCheck:
		printLines(out, renderSectionHeader("Pending", colorize))
		if len(result.Pending) == 0 {
			fmt.Fprintln(out, "Everyone has been notified.")
		} else {
			fmt.Fprintln(out, renderKeyTable("Recipient", result.Pending))
		}
		fmt.Fprintln(out)
	case dispatch.ModeMarkAll:
		if result.Persisted {
			fmt.Fprintf(out, "Recorded %d recipients as notified in %s\n\n", result.Log.Len(), result.LogPath)
		} else {
			fmt.Fprintf(out, "Nothing new to record; %s already lists every recipient\n\n", result.LogPath)
		}
	default:
		var failed []dispatch.Attempt
		for _, a := range result.Attempts {
			if !a.Succeeded() {
				failed = append(failed, a)
			}
		}
		if len(failed) > 0 {
			printLines(out, renderSectionHeader("Failed", colorize))
			rows := make([][]string, 0, len(failed))
			for _, a := range failed {
				rows = append(rows, []string{a.Key, a.Error})
			}
			fmt.Fprintln(out, renderTable([]string{"Recipient", "Error"}, rows, nil))
			fmt.Fprintln(out)
		}
	}

	printLines(out, renderSectionHeader("Summary: "+name, colorize))
	s := result.Summary
	rows := [][]string{
		{"Total recipients", strconv.Itoa(s.Total)},
		{"Already notified", strconv.Itoa(s.AlreadyNotified)},
		{"Pending", strconv.Itoa(s.Pending)},
		{"Skipped (no address)", strconv.Itoa(s.Skipped)},
	}
	if result.Mode == dispatch.ModeSend || result.Mode == dispatch.ModeTest {
		rows = append(rows,
			[]string{"Sent", strconv.Itoa(s.Sent)},
			[]string{"Failed", strconv.Itoa(s.Failed)})
	}
	if s.NotAttempted > 0 {
		rows = append(rows, []string{"Not attempted", strconv.Itoa(s.NotAttempted)})
	}
	fmt.Fprintln(out, renderTable([]string{"Metric", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
	fmt.Fprintf(out, "Run ID: %s\n", result.RunID)
}

func printLines(out io.Writer, lines []string) {
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
}
