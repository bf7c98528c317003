// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for networkbuster.
//
// Each subcommand maps to one stage of the provisioning pipeline
// (preflight, provision, backup, schedule, repack); provision chains the
// stages in their fixed order behind a single run lock.
package cmd
