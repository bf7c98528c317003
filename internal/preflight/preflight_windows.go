// SPDX-License-Identifier: MPL-2.0

//go:build windows

package preflight

import (
	"fmt"

	"golang.org/x/sys/windows"

	"networkbuster-cli/internal/wsl"
)

// isElevated reports whether the process token is a member of the
// built-in Administrators group with the token actually elevated.
func isElevated() (bool, error) {
	var sid *windows.SID
	err := windows.AllocateAndInitializeSid(
		&windows.SECURITY_NT_AUTHORITY,
		2,
		windows.SECURITY_BUILTIN_DOMAIN_RID,
		windows.DOMAIN_ALIAS_RID_ADMINS,
		0, 0, 0, 0, 0, 0,
		&sid,
	)
	if err != nil {
		return false, fmt.Errorf("allocate admin SID: %w", err)
	}
	defer func() { _ = windows.FreeSid(sid) }()

	token := windows.Token(0)
	member, err := token.IsMember(sid)
	if err != nil {
		return false, fmt.Errorf("check token membership: %w", err)
	}
	return member && token.IsElevated(), nil
}

// virtualizationAvailable checks that wsl.exe is installed on the host.
func virtualizationAvailable(lookPath func(string) (string, error)) error {
	if _, err := lookPath(wsl.Exe); err != nil {
		return fmt.Errorf("%s not found on PATH", wsl.Exe)
	}
	return nil
}
