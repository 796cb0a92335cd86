// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package platform isolates every host-specific decision augre makes.
//
// Dependencies never consult runtime.GOOS directly. They receive a Host,
// which tests construct for any platform.
package platform

import (
	"runtime"
	"strings"
)

// Host describes the machine augre runs on.
type Host struct {
	// OS is a GOOS value such as "linux", "darwin" or "windows".
	OS string

	// Root reports an effective uid of 0. Always false on Windows.
	Root bool
}

// Current returns the Host for this process.
func Current() Host {
	return Host{OS: runtime.GOOS, Root: effectiveRoot()}
}

// IsPOSIX reports whether paths on this host are already usable in a
// container runtime's volume syntax.
func (h Host) IsPOSIX() bool {
	return h.OS != "windows"
}

// IsLinux reports a Linux host. Automatic installs are only offered there.
func (h Host) IsLinux() bool {
	return h.OS == "linux"
}

// NeedsElevation reports whether system package installs must go through
// sudo.
func (h Host) NeedsElevation() bool {
	return h.IsPOSIX() && !h.Root
}

// Elevate prefixes program and args with sudo when the host needs it.
//
// # Example
//
//	name, args := host.Elevate("apt-get", []string{"update"})
//	// non-root linux: "sudo", ["apt-get", "update"]
func (h Host) Elevate(program string, args []string) (string, []string) {
	if !h.NeedsElevation() {
		return program, args
	}
	return "sudo", append([]string{program}, args...)
}

// ContainerMountPath converts an absolute native path into the form the
// container runtime accepts on the left side of a volume mount.
//
// # Description
//
// POSIX paths are returned unchanged. Windows paths, with or without the
// \\?\ extended-length prefix, become //<drive>/<rest> with forward
// slashes and a lower-case drive letter.
//
// # Inputs
//
//   - abs: Absolute path on this host.
//
// # Outputs
//
//   - string: Path suitable for "<path>:/app/model.bin".
//
// # Examples
//
//	Host{OS: "windows"}.ContainerMountPath(`C:\data\m.bin`)        // "//c/data/m.bin"
//	Host{OS: "windows"}.ContainerMountPath(`\\?\D:\models\x.gguf`) // "//d/models/x.gguf"
//	Host{OS: "linux"}.ContainerMountPath("/data/m.bin")            // "/data/m.bin"
//
// # Limitations
//
//   - UNC share paths (\\server\share) are returned with slashes flipped
//     but are otherwise untouched.
func (h Host) ContainerMountPath(abs string) string {
	if h.IsPOSIX() {
		return abs
	}
	p := strings.TrimPrefix(abs, `\\?\`)
	if len(p) >= 2 && p[1] == ':' && isASCIILetter(p[0]) {
		drive := strings.ToLower(p[:1])
		rest := strings.ReplaceAll(p[2:], `\`, "/")
		if !strings.HasPrefix(rest, "/") {
			rest = "/" + rest
		}
		return "//" + drive + rest
	}
	return strings.ReplaceAll(p, `\`, "/")
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
