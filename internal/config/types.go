// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// ContainerEngineDocker uses Docker as the container engine.
	ContainerEngineDocker ContainerEngine = "docker"
	// ContainerEnginePodman uses Podman as the container engine.
	ContainerEnginePodman ContainerEngine = "podman"

	// StrategySteps provisions step-by-step in a scratch container.
	StrategySteps ProvisionStrategy = "steps"
	// StrategyBuild provisions with a single Containerfile build.
	StrategyBuild ProvisionStrategy = "build"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidContainerEngine is returned when a ContainerEngine value is not recognized.
	ErrInvalidContainerEngine = errors.New("invalid container engine")
	// ErrInvalidProvisionStrategy is returned when a ProvisionStrategy value is not recognized.
	ErrInvalidProvisionStrategy = errors.New("invalid provision strategy")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidTimeout is returned when a Timeout value cannot be parsed or is not positive.
	ErrInvalidTimeout = errors.New("invalid provision timeout")
	// ErrInvalidForgefilePath is returned when a ForgefilePath value is whitespace-only.
	ErrInvalidForgefilePath = errors.New("invalid forgefile path")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ContainerEngine specifies which container engine to use.
	ContainerEngine string

	// InvalidContainerEngineError is returned when a ContainerEngine value
	// is not recognized. It wraps ErrInvalidContainerEngine for errors.Is().
	InvalidContainerEngineError struct {
		Value ContainerEngine
	}

	// ProvisionStrategy selects the provisioner implementation.
	ProvisionStrategy string

	// InvalidProvisionStrategyError is returned when a ProvisionStrategy
	// value is not recognized. It wraps ErrInvalidProvisionStrategy for errors.Is().
	InvalidProvisionStrategyError struct {
		Value ProvisionStrategy
	}

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not
	// recognized. It wraps ErrInvalidColorScheme for errors.Is().
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// Timeout is a duration string ("15m", "1h") bounding a provisioning run.
	Timeout string

	// InvalidTimeoutError is returned when a Timeout cannot be parsed or is
	// not positive. It wraps ErrInvalidTimeout for errors.Is().
	InvalidTimeoutError struct {
		Value  Timeout
		Reason string
	}

	// ForgefilePath is a filesystem path to a forgefile. The zero value ("")
	// is valid and means "look in the current directory".
	ForgefilePath string

	// InvalidForgefilePathError is returned when a ForgefilePath value is
	// non-empty but whitespace-only.
	InvalidForgefilePathError struct {
		Value ForgefilePath
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// ContainerEngine specifies whether to use "docker" or "podman"
		ContainerEngine ContainerEngine `json:"container_engine" mapstructure:"container_engine"`
		// Forgefile optionally points at a forgefile outside the current directory
		Forgefile ForgefilePath `json:"forgefile" mapstructure:"forgefile"`
		// Provision configures provisioning behavior
		Provision ProvisionConfig `json:"provision" mapstructure:"provision"`
		// UI configures the user interface
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// ProvisionConfig configures provisioning behavior.
	ProvisionConfig struct {
		// Strategy selects "steps" or "build"
		Strategy ProvisionStrategy `json:"strategy" mapstructure:"strategy"`
		// Timeout bounds a single provisioning run
		Timeout Timeout `json:"timeout" mapstructure:"timeout"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose streams provisioning step output to the terminal
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// Error implements the error interface for InvalidContainerEngineError.
func (e *InvalidContainerEngineError) Error() string {
	return fmt.Sprintf("invalid container engine %q (valid: docker, podman)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidContainerEngineError) Unwrap() error { return ErrInvalidContainerEngine }

// String returns the string representation of the ContainerEngine.
func (ce ContainerEngine) String() string { return string(ce) }

// IsValid returns whether the ContainerEngine is one of the defined engine
// types, and a list of validation errors if it is not.
func (ce ContainerEngine) IsValid() (bool, []error) {
	switch ce {
	case ContainerEngineDocker, ContainerEnginePodman:
		return true, nil
	default:
		return false, []error{&InvalidContainerEngineError{Value: ce}}
	}
}

// Error implements the error interface for InvalidProvisionStrategyError.
func (e *InvalidProvisionStrategyError) Error() string {
	return fmt.Sprintf("invalid provision strategy %q (valid: steps, build)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidProvisionStrategyError) Unwrap() error { return ErrInvalidProvisionStrategy }

// String returns the string representation of the ProvisionStrategy.
func (s ProvisionStrategy) String() string { return string(s) }

// IsValid returns whether the ProvisionStrategy is one of the defined
// strategies, and a list of validation errors if it is not.
func (s ProvisionStrategy) IsValid() (bool, []error) {
	switch s {
	case StrategySteps, StrategyBuild:
		return true, nil
	default:
		return false, []error{&InvalidProvisionStrategyError{Value: s}}
	}
}

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color
// schemes, and a list of validation errors if it is not.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// Error implements the error interface for InvalidTimeoutError.
func (e *InvalidTimeoutError) Error() string {
	return fmt.Sprintf("invalid provision timeout %q: %s", e.Value, e.Reason)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidTimeoutError) Unwrap() error { return ErrInvalidTimeout }

// String returns the string representation of the Timeout.
func (t Timeout) String() string { return string(t) }

// Duration parses the timeout. A zero value means "no deadline".
func (t Timeout) Duration() (time.Duration, error) {
	if t == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(string(t))
	if err != nil {
		return 0, &InvalidTimeoutError{Value: t, Reason: "not a duration (use forms like 15m or 1h30m)"}
	}
	if d <= 0 {
		return 0, &InvalidTimeoutError{Value: t, Reason: "must be positive"}
	}
	return d, nil
}

// IsValid returns whether the Timeout parses to a positive duration.
func (t Timeout) IsValid() (bool, []error) {
	if _, err := t.Duration(); err != nil {
		return false, []error{err}
	}
	return true, nil
}

// Error implements the error interface for InvalidForgefilePathError.
func (e *InvalidForgefilePathError) Error() string {
	return fmt.Sprintf("invalid forgefile path %q: non-empty value must not be whitespace-only", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidForgefilePathError) Unwrap() error { return ErrInvalidForgefilePath }

// String returns the string representation of the ForgefilePath.
func (p ForgefilePath) String() string { return string(p) }

// IsValid returns whether the ForgefilePath is valid. The zero value ("")
// is valid and means "look in the current directory".
func (p ForgefilePath) IsValid() (bool, []error) {
	if p == "" {
		return true, nil
	}
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidForgefilePathError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig plus the field errors for errors.Is().
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// IsValid returns whether the Config has valid fields. All field failures
// are collected rather than stopping at the first.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.ContainerEngine.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Forgefile.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Provision.Strategy.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Provision.Timeout.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.UI.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		ContainerEngine: ContainerEngineDocker,
		Forgefile:       "", // look in the current directory
		Provision: ProvisionConfig{
			Strategy: StrategySteps,
			Timeout:  "15m",
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Verbose:     false,
		},
	}
}
