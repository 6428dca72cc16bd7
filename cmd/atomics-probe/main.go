// Command atomics-probe reports which atomic operations the in-process
// provider offers per object width and can run a concurrent self test.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/sugawarayuuta/sonnet"
	"go.uber.org/multierr"

	"github.com/nmxmxh/atomics/atomics"
	"github.com/nmxmxh/atomics/internal/config"
	"github.com/nmxmxh/atomics/internal/metrics"
	"github.com/nmxmxh/atomics/internal/utils"
	"github.com/nmxmxh/atomics/native"
)

type options struct {
	configPath string
	widths     string
	json       bool
	selfTest   bool
	metrics    bool
	logLevel   string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	flag.StringVar(&opts.widths, "widths", "", "comma separated widths in bytes, overrides the config")
	flag.BoolVar(&opts.json, "json", false, "write the report as JSON")
	flag.BoolVar(&opts.selfTest, "self-test", false, "run the concurrent fetch-add self test")
	flag.BoolVar(&opts.metrics, "metrics", false, "dump Prometheus metrics after the run")
	flag.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout, os.Stderr); err != nil {
		utils.Global().Error("Probe failed", utils.Err(err))
		_ = utils.Global().Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, stdout, stderr io.Writer) (err error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if err := applyFlags(&cfg, opts); err != nil {
		return err
	}

	logger := utils.NewLogger(utils.LoggerConfig{
		Level:     cfg.Level(),
		Component: "probe",
		Output:    stderr,
	})
	utils.SetGlobalLogger(logger)

	cleanup := utils.NewReleaseGroup(logger)
	defer func() {
		err = multierr.Append(err, cleanup.Release(context.Background()))
	}()
	cleanup.Register("logger", func() error {
		// Syncing a terminal or pipe reports EINVAL on some platforms.
		_ = logger.Sync()
		return nil
	})

	var recorder *metrics.Recorder
	if cfg.Metrics {
		recorder = metrics.New()
	}
	provider := native.NewGoProvider(native.GoProviderConfig{
		Stripes:   cfg.Provider.Stripes,
		CacheLine: cfg.Provider.CacheLine,
	})
	env := atomics.NewEnv(atomics.Config{
		Provider: provider,
		Logger:   logger,
		Metrics:  recorder,
	})

	rep := report{CacheLine: int(provider.CacheLine())}
	for _, w := range cfg.Widths {
		r := probeWidth(env, w)
		if logger.Enabled(utils.DEBUG) {
			logger.Debug("Width probed", utils.Int("width", w), utils.Any("report", r))
		}
		rep.Widths = append(rep.Widths, r)
	}

	if cfg.SelfTest.Enabled {
		logger.Info("self test starting",
			utils.Int("width", cfg.SelfTest.Width),
			utils.Int("workers", cfg.SelfTest.Workers),
			utils.Int("iterations", cfg.SelfTest.Iterations))
		rep.SelfTest, err = runSelfTest(ctx, env, cfg.SelfTest, cleanup)
		if err != nil {
			logger.Error("Self test aborted", utils.Err(err))
			return utils.WrapError(err, "self test")
		}
		logger.Info("Self test finished",
			utils.Bool("ok", rep.SelfTest.OK),
			utils.Duration("elapsed", rep.SelfTest.elapsed))
	}

	if cfg.Format == config.FormatJSON {
		data, err := sonnet.Marshal(rep)
		if err != nil {
			return utils.WrapError(err, "encode report")
		}
		if _, err := fmt.Fprintln(stdout, string(data)); err != nil {
			return err
		}
	} else if err := writeText(stdout, rep); err != nil {
		return err
	}

	if recorder != nil {
		if err := recorder.WriteText(stderr); err != nil {
			return utils.WrapError(err, "write metrics")
		}
	}

	if rep.SelfTest != nil && !rep.SelfTest.OK {
		logger.Error("Self test mismatch",
			utils.String("want", rep.SelfTest.Want),
			utils.String("got", rep.SelfTest.Got))
		return fmt.Errorf("self test mismatch: want %s, got %s", rep.SelfTest.Want, rep.SelfTest.Got)
	}
	return nil
}

func applyFlags(cfg *config.Config, opts options) error {
	if opts.widths != "" {
		widths, err := parseWidths(opts.widths)
		if err != nil {
			return err
		}
		cfg.Widths = widths
	}
	if opts.json {
		cfg.Format = config.FormatJSON
	}
	if opts.selfTest {
		cfg.SelfTest.Enabled = true
	}
	if opts.metrics {
		cfg.Metrics = true
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	return cfg.Validate()
}

func parseWidths(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		w, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid width %q: %w", part, err)
		}
		out = append(out, w)
	}
	return out, nil
}
