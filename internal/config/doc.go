// SPDX-License-Identifier: MPL-2.0

// Package config loads and validates the crossforge configuration.
//
// Configuration lives in a CUE file resolved from platform-specific
// directories (XDG on Linux, Application Support on macOS, APPDATA on
// Windows), with Viper supplying defaults and merge behavior. A missing
// config file is not an error; defaults apply.
package config
