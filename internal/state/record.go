// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package state

import (
	"time"

	"github.com/google/uuid"
)

// Process describes a launched process.
type Process struct {
	Name   string `json:"name"`
	Binary string `json:"binary"`
	PID    int    `json:"pid"`
}

// Record describes the launch of an instance.
type Record struct {
	ID        uuid.UUID `json:"id"`
	Instance  int       `json:"instance"`
	Backend   string    `json:"backend"`
	StartedAt time.Time `json:"started_at"`
	Processes []Process `json:"processes"`
}

// NewRecord creates a [Record] with a new random ID started now.
func NewRecord(instance int, backend string, processes []Process) Record {
	return Record{
		ID:        uuid.New(),
		Instance:  instance,
		Backend:   backend,
		StartedAt: time.Now().UTC(),
		Processes: processes,
	}
}
