// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package util contains the error taxonomy and timeout helpers shared by
// every augre package.
//
// It is a leaf package: it imports nothing from the rest of the module.
//
// # Error Kinds
//
// Every failure a run can end with matches exactly one sentinel through
// errors.Is:
//
//	ErrProcess               program could not be spawned
//	ErrCommandFailed         program ran and exited non-zero (*CommandError)
//	ErrMissingConfiguration  required key absent (*MissingConfigurationError)
//	ErrUserDeclined          user refused a confirmation prompt
//	ErrUnsupportedPlatform   dependency cannot be installed on this host
//	ErrStartupTimeout        readiness poll exhausted its attempts
//	ErrAuthenticationMissing remote backend selected without an API key
//	ErrBackend               model request failed or returned nothing
//	ErrEncoding              captured output was not valid UTF-8
//
// *DependencyError adds the dependency name and the operation to any of
// the above without hiding it:
//
//	var depErr *util.DependencyError
//	if errors.As(err, &depErr) && errors.Is(err, util.ErrUserDeclined) {
//	    fmt.Println("skipped", depErr.Name)
//	}
package util
