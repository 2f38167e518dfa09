// Package procmeta discovers running processes and resolves what the
// recorder needs to know about them.
//
// Architecture:
//
//	┌─────────────────────────────────────────┐
//	│  Lister (Toolhelp snapshot)             │  ← pid + executable name
//	└─────────────────┬───────────────────────┘
//	                  │
//	                  ▼
//	┌─────────────────────────────────────────┐
//	│  Tracker                                │  ← (pid, name) already seen?
//	└─────────────────┬───────────────────────┘
//	                  │ new
//	                  ▼
//	┌─────────────────────────────────────────┐
//	│  Resolver                               │
//	│   ├──→ CommandLineSource (WMI)          │
//	│   └──→ WorkingDirSource (PEB read)      │
//	│          └── fallback: own cwd          │
//	└─────────────────────────────────────────┘
//
// Tracker is owned by a single scan loop and is not safe for concurrent use.
// The Windows sources live in *_windows.go files; OpenHost wires them
// together and fails with ErrUnsupportedPlatform elsewhere.
package procmeta
