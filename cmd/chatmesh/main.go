// Command chatmesh runs one group conversation of a configured team and
// prints each message as it is produced.
//
// Usage:
//
//	chatmesh [--config file] [--team journalism|shopping] [--task text]
//	         [--max-iterations n] [--window n] [--plain]
//	         [--log-level debug|info|warn|error] [--metrics-addr :9090]
//
// Credentials come from the config file or the environment
// (CHATMESH_MODEL_API_KEY, AZURE_OPENAI_API_KEY, BING_API_KEY, ...).
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/hupe1980/chatmesh"
	"github.com/hupe1980/chatmesh/config"
	"github.com/hupe1980/chatmesh/groupchat"
	"github.com/hupe1980/chatmesh/logging"
	"github.com/hupe1980/chatmesh/metrics"
	"github.com/hupe1980/chatmesh/render"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type flags struct {
	configPath    string
	team          string
	task          string
	provider      string
	maxIterations int
	window        int
	plain         bool
	logLevel      string
	metricsAddr   string
}

func parseFlags(args []string, stderr io.Writer) (*flags, *pflag.FlagSet, error) {
	var f flags

	flagSet := pflag.NewFlagSet("chatmesh", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&f.configPath, "config", "", "path to a YAML config file")
	flagSet.StringVar(&f.team, "team", "", fmt.Sprintf("team preset %v", config.TeamNames()))
	flagSet.StringVar(&f.task, "task", "", "task prompt (overrides the team's task)")
	flagSet.StringVar(&f.provider, "provider", "", "model provider: azure, openai, anthropic or mock")
	flagSet.IntVar(&f.maxIterations, "max-iterations", 0, "maximum number of agent turns")
	flagSet.IntVar(&f.window, "window", 0, "number of recent messages each agent sees")
	flagSet.BoolVar(&f.plain, "plain", false, "print messages without colors or markdown rendering")
	flagSet.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flagSet.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	if err := flagSet.Parse(args); err != nil {
		return nil, nil, err
	}

	if flagSet.NArg() > 0 {
		return nil, nil, fmt.Errorf("unexpected argument: %s", flagSet.Arg(0))
	}

	return &f, flagSet, nil
}

// apply overrides cfg with the flags given on the command line.
func (f *flags) apply(cfg *config.Config, flagSet *pflag.FlagSet) {
	if flagSet.Changed("team") {
		cfg.Team = f.team
		cfg.CustomTeam = nil
	}
	if flagSet.Changed("task") {
		cfg.Task = f.task
	}
	if flagSet.Changed("provider") {
		cfg.Model.Provider = f.provider
	}
	if flagSet.Changed("max-iterations") {
		cfg.Chat.MaxIterations = f.maxIterations
	}
	if flagSet.Changed("window") {
		cfg.Chat.Reducer = config.ReducerWindow
		cfg.Chat.WindowSize = f.window
	}
	if flagSet.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if flagSet.Changed("metrics-addr") {
		cfg.Metrics.Addr = f.metricsAddr
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	f, flagSet, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := config.NewLoader().WithConfigPath(f.configPath).Load()
	if err != nil {
		return err
	}

	f.apply(cfg, flagSet)

	logger, err := newLogger(cfg.Log, stderr)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(metrics.DefaultNamespace, reg, logger)

	if cfg.Metrics.Addr != "" {
		shutdown := serveMetrics(cfg.Metrics.Addr, reg, logger)
		defer shutdown()
	}

	mesh, err := chatmesh.New(cfg, func(o *chatmesh.Options) {
		o.Input = stdin
		o.Output = stdout
		o.Callbacks = collector.Callbacks()
		o.Logger = logger
	})
	if err != nil {
		return err
	}

	printer := render.NewPrinter(stdout, func(o *render.PrinterOptions) { o.Plain = f.plain })

	conv := mesh.NewConversation()

	var runErr error
	for msg, err := range conv.Run(ctx, mesh.Task()) {
		if err != nil {
			runErr = err
			continue
		}
		if err := printer.Message(msg); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}

	if err := printer.Outcome(conv.State()); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	if runErr != nil && conv.State().Outcome == groupchat.OutcomeAborted {
		return runErr
	}

	return nil
}

// newLogger picks text output for terminals and JSON otherwise unless the
// config names a format.
func newLogger(cfg config.LogConfig, out io.Writer) (*logging.ChatLogger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	format := cfg.Format
	if format == "" {
		format = "json"
		if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			format = "text"
		}
	}

	return logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    format,
		Output:    out,
		AddSource: cfg.AddSource,
		Component: "chatmesh",
	}), nil
}

func serveMetrics(addr string, reg *prometheus.Registry, logger logging.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("metrics.server.start", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics.server.error", "error", err.Error())
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
