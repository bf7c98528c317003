// SPDX-License-Identifier: MPL-2.0

// Package journal persists which provisioning steps have completed, so an
// aborted run can be resumed past them. The journal is a JSON file guarded
// by a cross-process flock and written atomically (temp file + rename).
package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

type (
	// Entry records one completed step.
	Entry struct {
		Step        string    `json:"step"`
		CompletedAt time.Time `json:"completed_at"`
	}

	// State is the on-disk journal structure.
	State struct {
		RunID   string  `json:"run_id"`
		Started string  `json:"started"`
		Entries []Entry `json:"entries"`
	}

	// Journal is a step journal bound to one file.
	Journal struct {
		path  string
		runID string
	}
)

// Open loads or creates the journal at path. A fresh journal gets a new
// run ID; an existing one keeps the ID of the run it belongs to, so a
// resumed run is attributable to the original.
func Open(path string) (*Journal, error) {
	j := &Journal{path: path}
	state, err := j.load()
	if err != nil {
		return nil, err
	}
	if state.RunID == "" {
		state.RunID = uuid.NewString()
		state.Started = time.Now().UTC().Format(time.RFC3339)
		if err := j.save(state); err != nil {
			return nil, err
		}
	}
	j.runID = state.RunID
	return j, nil
}

// RunID returns the identifier of the run this journal belongs to.
func (j *Journal) RunID() string { return j.runID }

// Done reports whether step has been journaled as complete.
func (j *Journal) Done(step string) (bool, error) {
	state, err := j.load()
	if err != nil {
		return false, err
	}
	for _, e := range state.Entries {
		if e.Step == step {
			return true, nil
		}
	}
	return false, nil
}

// MarkDone journals step as complete. Marking an already-done step is a
// no-op so callers don't need their own dedup.
func (j *Journal) MarkDone(step string) error {
	return j.update(func(state *State) {
		for _, e := range state.Entries {
			if e.Step == step {
				return
			}
		}
		state.Entries = append(state.Entries, Entry{
			Step:        step,
			CompletedAt: time.Now().UTC(),
		})
	})
}

// Clear removes the journal file, ending the run it describes.
func (j *Journal) Clear() error {
	if err := os.Remove(j.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear journal %s: %w", j.path, err)
	}
	return nil
}

func (j *Journal) load() (*State, error) {
	state := &State{}
	raw, err := os.ReadFile(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return state, nil
		}
		return nil, fmt.Errorf("read journal %s: %w", j.path, err)
	}
	if err := json.Unmarshal(raw, state); err != nil {
		return nil, fmt.Errorf("parse journal %s: %w", j.path, err)
	}
	return state, nil
}

func (j *Journal) update(fn func(*State)) error {
	if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		return fmt.Errorf("create journal dir: %w", err)
	}

	fl := flock.New(j.path + ".lock")
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("lock journal %s: %w", j.path, err)
	}
	defer func() { _ = fl.Unlock() }()

	state, err := j.load()
	if err != nil {
		return err
	}
	if state.RunID == "" {
		state.RunID = j.runID
		state.Started = time.Now().UTC().Format(time.RFC3339)
	}
	fn(state)
	return j.save(state)
}

// save writes the journal atomically so a crash mid-write never leaves a
// truncated file behind.
func (j *Journal) save(state *State) error {
	if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		return fmt.Errorf("create journal dir: %w", err)
	}
	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode journal: %w", err)
	}
	tmp := j.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write journal %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, j.path); err != nil {
		return fmt.Errorf("commit journal %s: %w", j.path, err)
	}
	return nil
}
