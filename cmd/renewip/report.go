package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/Travis-Britz/renewip"
)

var (
	good = color.New(color.FgGreen, color.Bold)
	warn = color.New(color.FgYellow)
	bad  = color.New(color.FgRed, color.Bold)
)

// report prints the outcome for the operator and returns the process exit code.
func report(w io.Writer, o renewip.RunOutcome, s settings) int {
	switch o.Kind {
	case renewip.Completed:
		good.Fprintf(w, "Got a new IP: %s\n", o.Address)
		if o.HistoryErr != nil {
			warn.Fprintf(w, "Could not save the new IP to %s: %s\n", s.HistoryFile, o.HistoryErr)
		}
		if o.PublishErr != nil {
			warn.Fprintf(w, "Could not update %s: %s\n", s.DNSRecord, o.PublishErr)
		}
		return exitOK

	case renewip.RunExhausted:
		if o.Detection != nil && o.Detection.OracleDown {
			warn.Fprintf(w, "Gave up after %d checks: %s did not answer.\n", o.Detection.Attempts, s.OracleURL)
			fmt.Fprintln(w, "The renewal was requested, but the new IP could not be verified.")
			return exitExhausted
		}
		warn.Fprintf(w, "Couldn't get new IP in %d pings.\n", s.Attempts)
		fmt.Fprintln(w, "Check if either:")
		fmt.Fprintln(w, "- Your router rebooted but with the same IP")
		fmt.Fprintln(w, "- Your router crashed/isn't starting")
		return exitExhausted

	case renewip.TriggerFailed:
		bad.Fprintf(w, "Error happened while sending the request: %s\n", o.Err)
		var rf *renewip.RequestFailedError
		if errors.As(o.Err, &rf) && (rf.StatusCode == http.StatusUnauthorized || rf.StatusCode == http.StatusForbidden) {
			fmt.Fprintf(w, "Your cookie has probably expired. Run again with --reconfigure or delete %s.\n", s.ConfigFile)
		}
		return exitError

	case renewip.BaselineUnavailable:
		bad.Fprintf(w, "Could not get your current IP, no renewal was requested: %s\n", o.Err)
		return exitError

	default:
		bad.Fprintf(w, "Unexpected outcome: %s\n", o.Kind)
		return exitError
	}
}

// progress rewrites a single status line while the detector polls.
// It stays silent unless stdout is a terminal.
type progress struct {
	w       io.Writer
	enabled bool
	written bool
}

func newProgress(w io.Writer) *progress {
	p := &progress{w: w}
	if f, ok := w.(*os.File); ok {
		p.enabled = term.IsTerminal(int(f.Fd()))
	}
	return p
}

func (p *progress) attempt(a renewip.PollAttempt) {
	if !p.enabled {
		return
	}
	fmt.Fprintf(p.w, "\rWaiting for new IP... (tries: %d)", a.Index+1)
	p.written = true
}

func (p *progress) done() {
	if p.written {
		fmt.Fprintln(p.w)
		p.written = false
	}
}
