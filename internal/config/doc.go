// SPDX-License-Identifier: MPL-2.0

// Package config resolves the tool's configuration: built-in defaults,
// then an optional CUE config file (validated against the embedded
// schema), then flag overrides applied by the CLI layer.
package config
