// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions and fakes for tests: env/dir
// manipulation that fails fast, and a scripted run.Runner so provisioning
// steps can be asserted without touching the host.
package testutil
