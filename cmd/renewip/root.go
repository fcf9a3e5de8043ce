package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Travis-Britz/renewip"
	"github.com/Travis-Britz/renewip/internal/config"
	"github.com/Travis-Britz/renewip/internal/logger"
	"github.com/Travis-Britz/renewip/internal/version"
)

const (
	exitOK          = 0
	exitError       = 1
	exitExhausted   = 2
	exitInterrupted = 130
)

// minInterval rejects unitless values like RENEWIP_INTERVAL=5, which parse as nanoseconds.
const minInterval = time.Second

// exitCode is returned from the command once the outcome has already been reported.
type exitCode int

func (c exitCode) Error() string { return fmt.Sprintf("exit status %d", int(c)) }

// settings are the run options. Every one of them has a default, so no flag is required.
type settings struct {
	ConfigFile     string
	HistoryFile    string
	OracleURL      string
	Attempts       int
	Interval       time.Duration
	MaxUnreachable int
	Reconfigure    bool
	Verbose        bool
	LogFile        string
	DNSRecord      string
	CloudflareKey  string
}

func newRootCommand() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:           "renewip",
		Short:         "Ask the ISP for a new public IP and wait until it shows up",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRenew(cmd, loadSettings(v))
		},
	}

	f := cmd.Flags()
	f.String("config", "renewip.json", "Path to the configuration file (created interactively if missing)")
	f.String("history", "renewip_ips.txt", "File that accepted IPs are appended to, if enabled in the configuration")
	f.String("oracle-url", renewip.DefaultOracleURL, "Service that answers with the public IP as plain text")
	f.Int("attempts", renewip.DefaultMaxAttempts, "Number of retries after the first IP check")
	f.Duration("interval", renewip.DefaultInterval, "Duration to wait between IP checks")
	f.Int("max-unreachable", 0, "Give up after this many consecutive failed IP checks (0 disables)")
	f.Bool("reconfigure", false, "Ask the setup questions again even if a configuration file exists")
	f.BoolP("verbose", "v", false, "Enable verbose logging")
	f.String("log-file", "", "Also write a JSON debug log to this file")
	f.String("dns-record", "", "Cloudflare DNS record to point at the new IP")
	f.String("cloudflare-key", defaultKeyFile(), "Path to cloudflare API credentials file")

	v.SetEnvPrefix("RENEWIP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlags(f)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Get())
		},
	})
	return cmd
}

func loadSettings(v *viper.Viper) settings {
	return settings{
		ConfigFile:     v.GetString("config"),
		HistoryFile:    v.GetString("history"),
		OracleURL:      v.GetString("oracle-url"),
		Attempts:       v.GetInt("attempts"),
		Interval:       v.GetDuration("interval"),
		MaxUnreachable: v.GetInt("max-unreachable"),
		Reconfigure:    v.GetBool("reconfigure"),
		Verbose:        v.GetBool("verbose"),
		LogFile:        v.GetString("log-file"),
		DNSRecord:      v.GetString("dns-record"),
		CloudflareKey:  v.GetString("cloudflare-key"),
	}
}

func (s settings) validate() error {
	if s.Attempts < 0 {
		return fmt.Errorf("attempts cannot be negative")
	}
	if s.Interval < minInterval {
		return fmt.Errorf("interval must be at least %s, got %s (did you forget the unit?)", minInterval, s.Interval)
	}
	if s.MaxUnreachable < 0 {
		return fmt.Errorf("max-unreachable cannot be negative")
	}
	if _, err := config.Format(s.ConfigFile); err != nil {
		return fmt.Errorf("invalid config path: %w", err)
	}
	return nil
}

func runRenew(cmd *cobra.Command, s settings) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if err := s.validate(); err != nil {
		return err
	}

	logCfg := logger.DefaultConfig()
	logCfg.File = s.LogFile
	if s.Verbose {
		logCfg.Level = "debug"
	}
	log, err := logger.New(logCfg, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("error creating logger: %w", err)
	}
	defer func() { _ = log.Sync() }()
	log = log.With(zap.String("run_id", uuid.NewString()))
	log.Debug("settings loaded", zap.Any("settings", s))

	prompter := config.NewPrompter(cmd.InOrStdin(), out)
	store := config.NewStore(s.ConfigFile, prompter, log)
	store.Reconfigure = s.Reconfigure
	cfg, err := loadConfiguration(ctx, store, func() {
		if err := prompter.Restore(); err != nil {
			log.Warn("unable to restore terminal state", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}

	session, err := newSession(s, log, out)
	if err != nil {
		return err
	}

	progress := newProgress(out)
	session.Detector().OnAttempt = progress.attempt

	outcome, err := session.Run(ctx, cfg)
	progress.done()
	if err != nil {
		return err
	}
	if code := report(out, outcome, s); code != exitOK {
		return exitCode(code)
	}
	return nil
}

func newSession(s settings, log *zap.Logger, out io.Writer) (*renewip.Session, error) {
	oracle, err := renewip.WebOracle(s.OracleURL)
	if err != nil {
		return nil, fmt.Errorf("error creating IP oracle: %w", err)
	}
	trigger, err := renewip.LiveboxTrigger()
	if err != nil {
		return nil, fmt.Errorf("error creating renewal trigger: %w", err)
	}
	history, err := renewip.AppendFile(s.HistoryFile)
	if err != nil {
		return nil, fmt.Errorf("error opening history: %w", err)
	}

	detector := renewip.NewDetector(oracle)
	detector.MaxAttempts = s.Attempts
	detector.Interval = s.Interval
	detector.MaxConsecutiveUnreachable = s.MaxUnreachable

	options := []renewip.Option{
		renewip.WithLogger(log),
		renewip.WithOutput(out),
		renewip.WithDetector(detector),
		renewip.WithHistory(history),
	}
	if s.DNSRecord != "" {
		publisher, err := newCloudflarePublisher(s.CloudflareKey, s.DNSRecord)
		if err != nil {
			return nil, err
		}
		options = append(options, renewip.WithPublisher(publisher))
	}

	session, err := renewip.New(oracle, trigger, options...)
	if err != nil {
		return nil, fmt.Errorf("error creating session: %w", err)
	}
	return session, nil
}

// loadConfiguration stops waiting for interactive input when ctx is cancelled.
// The goroutine blocked on stdin is abandoned and the process exits right after,
// so onCancel must undo anything that goroutine would have cleaned up, like terminal echo.
func loadConfiguration(ctx context.Context, loader renewip.ConfigLoader, onCancel func()) (renewip.Configuration, error) {
	type result struct {
		cfg renewip.Configuration
		err error
	}
	done := make(chan result, 1)
	go func() {
		cfg, err := loader.LoadConfiguration()
		done <- result{cfg, err}
	}()
	select {
	case <-ctx.Done():
		if onCancel != nil {
			onCancel()
		}
		return renewip.Configuration{}, ctx.Err()
	case r := <-done:
		return r.cfg, r.err
	}
}
