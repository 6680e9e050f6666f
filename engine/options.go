package engine

import "github.com/joeycumines/go-rulesengine/status"

// config holds the resolved construction-time configuration for an
// Engine, populated by applying every Option in order (spec §3.3).
type config struct {
	logger            Logger
	epsilonScale      float64
	blockWidth        uint8
	hookCacheCapacity int
}

// Option configures an Engine at construction time, mirroring the
// teacher's functional-options idiom (eventloop.LoopOption +
// loopOptionImpl + resolveLoopOptions).
type Option interface {
	apply(*config) error
}

// optionImpl implements Option with a plain closure, the same shape as
// the teacher's loopOptionImpl.
type optionImpl struct {
	applyFunc func(*config) error
}

func (o *optionImpl) apply(c *config) error {
	return o.applyFunc(c)
}

// WithLogger overrides the package-level default Logger for this Engine.
func WithLogger(logger Logger) Option {
	return &optionImpl{func(c *config) error {
		c.logger = logger
		return nil
	}}
}

// WithFloatEpsilonScale overrides the multiplier applied to float64's
// machine epsilon when comparing Float statuses (default
// status.DefaultEpsilonScale). scale must be positive.
func WithFloatEpsilonScale(scale float64) Option {
	return &optionImpl{func(c *config) error {
		if scale <= 0 {
			return &ConfigError{Option: "WithFloatEpsilonScale", Cause: ErrInvalidOption}
		}
		c.epsilonScale = scale
		return nil
	}}
}

// WithBlockWidth is reserved for a future word type other than uint64;
// it validates but does not yet change storage width, since Nmax is
// fixed to 64 (spec §5.4's "word type fixed to uint64").
func WithBlockWidth(width uint8) Option {
	return &optionImpl{func(c *config) error {
		if width == 0 || width > status.Nmax {
			return &ConfigError{Option: "WithBlockWidth", Cause: ErrInvalidOption}
		}
		c.blockWidth = width
		return nil
	}}
}

// WithHookCacheCapacity pre-sizes the dispatcher's per-tick invocation
// cache, avoiding early reallocation for hosts that know roughly how
// many hooks fire per tick.
func WithHookCacheCapacity(capacity int) Option {
	return &optionImpl{func(c *config) error {
		if capacity < 0 {
			return &ConfigError{Option: "WithHookCacheCapacity", Cause: ErrInvalidOption}
		}
		c.hookCacheCapacity = capacity
		return nil
	}}
}

// WithTransitionWord is reserved for a future transition-byte encoding
// wider than uint8; it validates the only currently-supported value (8)
// now so a later expansion is backward compatible.
func WithTransitionWord(bits uint8) Option {
	return &optionImpl{func(c *config) error {
		if bits != 8 {
			return &ConfigError{Option: "WithTransitionWord", Cause: ErrInvalidOption}
		}
		return nil
	}}
}

// resolveOptions applies opts in order over the default config.
func resolveOptions(opts []Option) (*config, error) {
	c := &config{
		logger:       getGlobalLogger(),
		epsilonScale: status.DefaultEpsilonScale,
		blockWidth:   status.Nmax,
	}
	for _, o := range opts {
		if o == nil {
			continue
		}
		if err := o.apply(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}
