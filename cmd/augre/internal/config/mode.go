// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"fmt"
	"strings"
)

// Mode selects the model backend and, through it, the local dependencies a
// run needs. Exactly one mode is active per run.
type Mode int

const (
	// ModeRemoteAPI talks to a hosted OpenAI-compatible API. Needs a key,
	// nothing local.
	ModeRemoteAPI Mode = iota

	// ModeLocalCPU runs the inference server in a container on the CPU.
	ModeLocalCPU

	// ModeLocalGPU runs the inference server with an nvidia device
	// reservation.
	ModeLocalGPU
)

// DefaultMode is used when neither flag, environment nor file set a mode.
const DefaultMode = ModeRemoteAPI

// String returns the configuration spelling of the mode.
func (m Mode) String() string {
	switch m {
	case ModeLocalCPU:
		return "localcpu"
	case ModeLocalGPU:
		return "localgpu"
	case ModeRemoteAPI:
		return "openai"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// IsLocal reports whether the mode runs the backend on this machine.
func (m Mode) IsLocal() bool {
	return m == ModeLocalCPU || m == ModeLocalGPU
}

// ParseMode accepts localcpu, localgpu and openai in any case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "localcpu":
		return ModeLocalCPU, nil
	case "localgpu":
		return ModeLocalGPU, nil
	case "openai":
		return ModeRemoteAPI, nil
	default:
		return DefaultMode, fmt.Errorf("unknown mode %q (want localcpu, localgpu or openai)", s)
	}
}

// Set implements pflag.Value so --mode is validated at parse time.
func (m *Mode) Set(s string) error {
	parsed, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Type implements pflag.Value.
func (m *Mode) Type() string {
	return "mode"
}
