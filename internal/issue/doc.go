// SPDX-License-Identifier: MPL-2.0

// Package issue provides user-facing error types for the provisioning CLI.
//
// ActionableError carries the operation, the resource involved, and
// remediation suggestions; the catalog in issue.go maps well-known
// precondition failures (missing elevation, missing wsl.exe, absent backup
// target) to rendered markdown guidance.
package issue
