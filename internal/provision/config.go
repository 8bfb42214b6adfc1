// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
)

type (
	// Strategy selects how an environment is materialized.
	Strategy string

	// Config holds configuration for provisioning runs.
	Config struct {
		// Strategy selects the provisioner implementation.
		Strategy Strategy

		// ForceRebuild bypasses cached images and forces a rebuild.
		ForceRebuild bool

		// TagPrefix is the repository prefix for provisioned image tags.
		// Default: "crossforge".
		TagPrefix string

		// TagSuffix is an optional suffix appended to provisioned image
		// tags. This enables test isolation by making each test's images
		// unique. Can be set via the CROSSFORGE_TAG_SUFFIX environment
		// variable.
		TagSuffix string

		// Verbose streams step output to stderr in addition to capturing
		// it in the result logs.
		Verbose bool

		// Logger receives step-level diagnostics.
		Logger *log.Logger
	}

	// Option is a functional option for configuring a Config.
	Option func(*Config)
)

const (
	// StrategySteps provisions by executing each step in a scratch
	// container and committing the result. Steps get individual error
	// attribution and the index refresh gets its automatic retry.
	StrategySteps Strategy = "steps"

	// StrategyBuild provisions by rendering a Containerfile and running a
	// single engine build. Cheaper, but failures are attributed by
	// parsing build output and no per-step retry is possible.
	StrategyBuild Strategy = "build"
)

// Validate returns an error if the Strategy is not recognized.
func (s Strategy) Validate() error {
	switch s {
	case StrategySteps, StrategyBuild:
		return nil
	default:
		return fmt.Errorf("unknown provisioning strategy %q (valid: steps, build)", s)
	}
}

// String returns the string representation of the Strategy.
func (s Strategy) String() string { return string(s) }

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	logger := log.New(os.Stderr)
	logger.SetPrefix("provision")

	return &Config{
		Strategy:  StrategySteps,
		TagPrefix: "crossforge",
		TagSuffix: os.Getenv("CROSSFORGE_TAG_SUFFIX"),
		Logger:    logger,
	}
}

// WithStrategy returns an Option that sets the provisioning strategy.
func WithStrategy(s Strategy) Option {
	return func(c *Config) {
		c.Strategy = s
	}
}

// WithForceRebuild returns an Option that sets ForceRebuild on the config.
func WithForceRebuild(force bool) Option {
	return func(c *Config) {
		c.ForceRebuild = force
	}
}

// WithTagSuffix returns an Option that sets TagSuffix on the config.
// This is primarily used for test isolation so parallel tests don't
// compete for the same provisioned image tags.
func WithTagSuffix(suffix string) Option {
	return func(c *Config) {
		c.TagSuffix = suffix
	}
}

// WithVerbose returns an Option that sets Verbose on the config.
func WithVerbose(verbose bool) Option {
	return func(c *Config) {
		c.Verbose = verbose
	}
}

// WithLogger returns an Option that sets the step logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// Apply applies the given options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}
