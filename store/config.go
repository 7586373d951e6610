package store

import (
	"fmt"
	"log/slog"

	"github.com/arloliu/appinfo/encoding"
	"github.com/arloliu/appinfo/errs"
	"github.com/arloliu/appinfo/format"
	"github.com/arloliu/appinfo/internal/options"
)

// Config holds the store options.
type Config struct {
	logger       *slog.Logger
	validateSize bool
	strict       bool
	unknownTags  encoding.UnknownTagPolicy
	version      format.Version
	universe     format.Universe
}

func newConfig(opts []Option) (*Config, error) {
	cfg := &Config{
		logger:       slog.Default(),
		validateSize: true,
		version:      format.Version41,
		universe:     format.UniversePublic,
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Option is a functional option for Load, Decode and New.
type Option = options.Option[*Config]

// WithLogger sets the logger receiving decode anomalies.
// Default is slog.Default(). A nil logger discards them.
func WithLogger(logger *slog.Logger) Option {
	return options.NoError(func(c *Config) {
		if logger == nil {
			logger = slog.New(slog.DiscardHandler)
		}
		c.logger = logger
	})
}

// WithSizeValidation enables comparing each entry's size field with the
// decoded payload length. A mismatch is recorded as a diagnostic wrapping
// errs.ErrSizeMismatch; it never fails the load on its own.
// Default is true.
func WithSizeValidation(enabled bool) Option {
	return options.NoError(func(c *Config) {
		c.validateSize = enabled
	})
}

// WithStrict turns recorded diagnostics into a load error.
// Default is false.
func WithStrict(enabled bool) Option {
	return options.NoError(func(c *Config) {
		c.strict = enabled
	})
}

// WithUnknownTagPolicy sets how far an unknown type tag ends an app's tree.
//
// With encoding.StopTree the app's tree ends at the tag. Decoding resumes at
// the next entry through the size field; versions without one (28, 29) end
// the load there and the later entries are lost.
//
// With encoding.StopDict only the dict holding the tag ends and decoding
// continues after its key. Entries without a size field then continue from
// that position, so later entries are still read when the unknown value is
// empty, at the risk of misreading the rest of the tree.
// Default is encoding.StopTree.
func WithUnknownTagPolicy(p encoding.UnknownTagPolicy) Option {
	return options.New(func(c *Config) error {
		if !p.Valid() {
			return fmt.Errorf("invalid unknown tag policy: %s", p)
		}
		c.unknownTags = p

		return nil
	})
}

// WithVersion sets the version of a store created by New. It is ignored by
// Load and Decode, which take the version from the header.
// Default is format.Version41.
func WithVersion(v format.Version) Option {
	return options.New(func(c *Config) error {
		if !v.Supported() {
			return &errs.IncompatibleVersionError{Version: uint8(v), Magic: format.Magic}
		}
		c.version = v

		return nil
	})
}

// WithUniverse sets the universe of a store created by New.
// Default is format.UniversePublic.
func WithUniverse(u format.Universe) Option {
	return options.New(func(c *Config) error {
		if !u.Valid() {
			return fmt.Errorf("%w: %d", errs.ErrInvalidUniverse, uint32(u))
		}
		c.universe = u

		return nil
	})
}
