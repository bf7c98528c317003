// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package preflight

import (
	"errors"
	"os"
	"strings"
)

// isElevated reports whether the process runs as root.
func isElevated() (bool, error) {
	return os.Geteuid() == 0, nil
}

// virtualizationAvailable checks that we are inside a WSL distribution by
// inspecting the kernel identification. Provisioning from a non-WSL Linux
// host is not supported.
func virtualizationAvailable(_ func(string) (string, error)) error {
	raw, err := os.ReadFile("/proc/version")
	if err != nil {
		return errors.New("cannot determine kernel version; not a WSL environment?")
	}
	version := strings.ToLower(string(raw))
	if !strings.Contains(version, "microsoft") && !strings.Contains(version, "wsl") {
		return errors.New("not running inside a WSL distribution")
	}
	return nil
}
