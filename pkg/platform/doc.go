// SPDX-License-Identifier: MPL-2.0

// Package platform provides cross-platform compatibility helpers shared by
// the host-side (Windows) and distro-side (Linux) code paths.
package platform
