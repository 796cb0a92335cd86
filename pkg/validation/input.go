// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation utilities for values that end
// up in file paths or subprocess arguments.
//
// Configuration and the environment are not trusted: a model URL decides
// where a download is written and $USER is passed to usermod under sudo.
// Validating both prevents path traversal and argument injection.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// fileNamePattern matches a single path segment made of letters, digits,
// dots, underscores and hyphens. Max length: 255 (common filesystem limit).
var fileNamePattern = regexp.MustCompile(`^[A-Za-z0-9._\-]{1,255}$`)

// userNamePattern matches POSIX portable user names as accepted by useradd.
var userNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_\-]{0,31}\$?$`)

// ValidateFileName validates a file name that is joined onto a trusted
// directory.
//
// Valid names:
//   - 1-255 characters
//   - Letters, digits, dots, underscores and hyphens
//   - Not "." or ".."
//   - Not starting with a hyphen (would read as a flag)
//
// # Example
//
//	if err := validation.ValidateFileName(name); err != nil {
//	    return "", fmt.Errorf("invalid model_url: %w", err)
//	}
//	// Safe to filepath.Join(dataPath, name)
func ValidateFileName(name string) error {
	if name == "" {
		return fmt.Errorf("file name cannot be empty")
	}
	if name == "." || name == ".." {
		return fmt.Errorf("invalid file name %q: refers to a directory", name)
	}
	if strings.HasPrefix(name, "-") {
		return fmt.Errorf("invalid file name %q: must not start with a hyphen", name)
	}
	if !fileNamePattern.MatchString(name) {
		return fmt.Errorf("invalid file name %q (letters, digits, dots, underscores or hyphens only)", name)
	}
	return nil
}

// ValidateUserName validates a login name before it is passed to a
// privileged command.
func ValidateUserName(name string) error {
	if name == "" {
		return fmt.Errorf("user name cannot be empty")
	}
	if !userNamePattern.MatchString(name) {
		return fmt.Errorf("invalid user name %q", name)
	}
	return nil
}

// SanitizeUserName trims surrounding whitespace and validates the result.
//
//	user, err := validation.SanitizeUserName(os.Getenv("USER"))
//	if err != nil {
//	    return err
//	}
func SanitizeUserName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if err := ValidateUserName(trimmed); err != nil {
		return "", err
	}
	return trimmed, nil
}
