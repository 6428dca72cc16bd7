package atomics

import (
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/nmxmxh/atomics/internal/buffer"
	"github.com/nmxmxh/atomics/internal/metrics"
	"github.com/nmxmxh/atomics/internal/utils"
	"github.com/nmxmxh/atomics/native"
)

// AccessMode selects whether borrowed memory may be modified.
type AccessMode = buffer.AccessMode

const (
	ReadWrite = buffer.ReadWrite
	ReadOnly  = buffer.ReadOnly
)

// Config configures an Env. Zero fields select the defaults.
type Config struct {
	// Provider supplies entry points; defaults to native.Default().
	Provider native.Provider
	// Logger defaults to utils.Global().
	Logger *utils.Logger
	// Metrics is optional.
	Metrics *metrics.Recorder
}

// Env binds a provider to its capability cache, logger and metrics. Every
// atomic object is created through an Env; the package level constructors
// use DefaultEnv.
type Env struct {
	provider native.Provider
	logger   *utils.Logger
	metrics  *metrics.Recorder

	caps  sync.Map // int -> *Capabilities
	group singleflight.Group
}

// NewEnv creates an environment.
func NewEnv(cfg Config) *Env {
	if cfg.Provider == nil {
		cfg.Provider = native.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = utils.Global()
	}
	return &Env{
		provider: cfg.Provider,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
	}
}

var (
	defaultEnvOnce sync.Once
	defaultEnv     *Env
)

// DefaultEnv returns the process-wide environment over native.Default().
func DefaultEnv() *Env {
	defaultEnvOnce.Do(func() {
		defaultEnv = NewEnv(Config{})
	})
	return defaultEnv
}

func (e *Env) Provider() native.Provider {
	return e.provider
}

func (e *Env) Logger() *utils.Logger {
	return e.logger
}

func (e *Env) Metrics() *metrics.Recorder {
	return e.metrics
}

// Resolve returns the provider's report for width. The provider is queried
// once per width; concurrent first calls share one query. Failed queries
// are not cached.
func (e *Env) Resolve(width int) (*Capabilities, error) {
	if width < 0 {
		return nil, e.fail(&InvalidWidthError{Width: width})
	}
	if c, ok := e.caps.Load(width); ok {
		return c.(*Capabilities), nil
	}

	v, err, _ := e.group.Do(strconv.Itoa(width), func() (interface{}, error) {
		if c, ok := e.caps.Load(width); ok {
			return c, nil
		}

		e.metrics.ObserveResolve(width)
		table, align, err := e.provider.Resolve(width)
		if err != nil {
			return nil, &ProviderError{Width: width, Cause: err}
		}
		c := &Capabilities{
			Width:     width,
			Table:     table,
			Alignment: align,
			readWrite: e.provider.CountSupported(&table, false),
			readOnly:  e.provider.CountSupported(&table, true),
		}
		e.logger.Debug("Resolved width",
			utils.Int("width", width),
			utils.Int("read_write_ops", c.readWrite),
			utils.Int("read_only_ops", c.readOnly),
			utils.Uint64("recommended", uint64(align.Recommended)),
			utils.Uint64("size_within", uint64(align.SizeWithin)),
		)
		e.caps.Store(width, c)
		return c, nil
	})
	if err != nil {
		return nil, e.fail(err)
	}
	return v.(*Capabilities), nil
}

// Capabilities resolves width and fails with *UnsupportedWidthError if no
// operation is usable under mode.
func (e *Env) Capabilities(width int, mode AccessMode) (*Capabilities, error) {
	c, err := e.Resolve(width)
	if err != nil {
		return nil, err
	}
	readonly := !mode.Writable()
	if !c.Supported(readonly) {
		e.logger.Warn("Unsupported width",
			utils.Int("width", width),
			utils.Bool("readonly", readonly),
		)
		return nil, e.fail(&UnsupportedWidthError{Width: width, Readonly: readonly})
	}
	return c, nil
}

// Alignment returns a validator for width. Widths without any read-only
// operation are rejected.
func (e *Env) Alignment(width int) (*AlignmentValidator, error) {
	c, err := e.Capabilities(width, ReadOnly)
	if err != nil {
		return nil, err
	}
	return NewAlignmentValidator(width, c.Alignment), nil
}

// fail records err in the metrics and returns it unchanged.
func (e *Env) fail(err error) error {
	if code := ErrorCode(err); code != "" {
		e.metrics.ObserveError(code)
	}
	return err
}
