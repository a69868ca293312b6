// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

package tree

import (
	json "github.com/go-json-experiment/json"
)

// ToJSON renders s as the snapshot wire document.
func (s *Snapshot) ToJSON() ([]byte, error) {
	return json.Marshal(s)
}

// ParseSnapshot reads a snapshot document back into a Snapshot. The
// result's HandleID is empty (identity is not part of the wire format);
// ParseSnapshot is for agents consuming a snapshot, not for feeding a
// parsed document back into Diff against a live tree.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
