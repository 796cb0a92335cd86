// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// PersonalityEnvVar overrides the detected personality level.
const PersonalityEnvVar = "AUGRE_PERSONALITY"

// PersonalityLevel defines how rich the CLI output is.
type PersonalityLevel string

const (
	// PersonalityFull enables colors, icons and the spinner animation.
	PersonalityFull PersonalityLevel = "full"

	// PersonalityStandard is full output without the banner title.
	PersonalityStandard PersonalityLevel = "standard"

	// PersonalityMinimal uses icons and no colors on message text.
	PersonalityMinimal PersonalityLevel = "minimal"

	// PersonalityMachine outputs prefixed plain text suitable for scripts.
	PersonalityMachine PersonalityLevel = "machine"
)

var (
	currentLevel  = PersonalityFull
	personalityMu sync.RWMutex
)

// GetPersonalityLevel returns the active personality level.
func GetPersonalityLevel() PersonalityLevel {
	personalityMu.RLock()
	defer personalityMu.RUnlock()
	return currentLevel
}

// SetPersonalityLevel replaces the active personality level.
func SetPersonalityLevel(level PersonalityLevel) {
	personalityMu.Lock()
	defer personalityMu.Unlock()
	currentLevel = level
}

// ParsePersonalityLevel converts a string to a PersonalityLevel. Unknown
// values map to PersonalityStandard.
func ParsePersonalityLevel(s string) PersonalityLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "full", "f":
		return PersonalityFull
	case "standard", "std", "s":
		return PersonalityStandard
	case "minimal", "min", "m":
		return PersonalityMinimal
	case "machine", "quiet", "q":
		return PersonalityMachine
	default:
		return PersonalityStandard
	}
}

// InitPersonality picks the personality level for this process.
//
// # Description
//
// An explicit flag value wins, then AUGRE_PERSONALITY, then terminal
// detection: a stdout that is not a TTY gets machine output.
//
// # Inputs
//
//   - flagValue: Value of --personality, empty when not given.
//
// # Outputs
//
//   - PersonalityLevel: The level that was applied.
func InitPersonality(flagValue string) PersonalityLevel {
	level := PersonalityFull
	switch {
	case flagValue != "":
		level = ParsePersonalityLevel(flagValue)
	case os.Getenv(PersonalityEnvVar) != "":
		level = ParsePersonalityLevel(os.Getenv(PersonalityEnvVar))
	case !isTerminal(os.Stdout):
		level = PersonalityMachine
	}
	SetPersonalityLevel(level)
	return level
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// IsInteractive reports whether rich interactive prompts can be shown.
func IsInteractive() bool {
	return GetPersonalityLevel() != PersonalityMachine && isTerminal(os.Stdin) && isTerminal(os.Stdout)
}
