// SPDX-License-Identifier: MPL-2.0

// Package install runs the ordered package-installation plan: system
// packages, cloud-vendor CLIs, and language-ecosystem packages. Execution
// is fail-stop — the first non-zero exit aborts the remainder of the run
// with no partial-state cleanup.
package install

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

//go:embed default_plan.toml
var defaultPlanTOML []byte

type (
	// Step is one package-manager invocation.
	Step struct {
		// Name is the journal key for the step; unique across the plan.
		Name string `toml:"name"`
		// Script is the shell snippet run inside the distribution.
		Script string `toml:"script"`
	}

	// Group is an ordered set of steps installed together (e.g. "system",
	// "cloud-cli").
	Group struct {
		Name  string `toml:"name"`
		Steps []Step `toml:"steps"`
	}

	// Plan is the full ordered installation plan.
	Plan struct {
		Groups []Group `toml:"groups"`
	}
)

// DefaultPlan returns the embedded NetworkBuster plan.
func DefaultPlan() (*Plan, error) {
	return parsePlan(defaultPlanTOML)
}

// LoadPlan reads a plan override from a TOML file.
func LoadPlan(path string) (*Plan, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan %s: %w", path, err)
	}
	plan, err := parsePlan(raw)
	if err != nil {
		return nil, fmt.Errorf("plan %s: %w", path, err)
	}
	return plan, nil
}

func parsePlan(raw []byte) (*Plan, error) {
	var plan Plan
	if err := toml.Unmarshal(raw, &plan); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return &plan, nil
}

// Validate checks structural soundness: non-empty names and scripts, and
// step names unique across the whole plan (they key the resume journal).
func (p *Plan) Validate() error {
	if len(p.Groups) == 0 {
		return fmt.Errorf("plan has no groups")
	}
	seen := map[string]bool{}
	for _, g := range p.Groups {
		if g.Name == "" {
			return fmt.Errorf("plan group without a name")
		}
		if len(g.Steps) == 0 {
			return fmt.Errorf("group %s has no steps", g.Name)
		}
		for _, s := range g.Steps {
			if s.Name == "" {
				return fmt.Errorf("group %s has a step without a name", g.Name)
			}
			if s.Script == "" {
				return fmt.Errorf("step %s has no script", s.Name)
			}
			if seen[s.Name] {
				return fmt.Errorf("duplicate step name %s", s.Name)
			}
			seen[s.Name] = true
		}
	}
	return nil
}

// StepCount returns the total number of steps across all groups.
func (p *Plan) StepCount() int {
	n := 0
	for _, g := range p.Groups {
		n += len(g.Steps)
	}
	return n
}
