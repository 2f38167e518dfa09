// Package capture turns a resolved compiler process into capture records.
//
// Architecture:
//
//	┌─────────────────────────────────────────┐
//	│  procmeta.ProcessMetadata               │
//	│  (pid, name, command line, directory)   │
//	└─────────────────┬───────────────────────┘
//	                  │
//	                  ▼
//	┌─────────────────────────────────────────┐
//	│  Processor.HandleProcess                │
//	└─────────┬───────────────────────────────┘
//	          │
//	          ├──→ Expander ──→ rspfile (inline "@file" arguments)
//	          │
//	          ├──→ srcfile.Extract ──→ absolute source paths
//	          │
//	          ├──→ Filter (optional expr-lang predicate)
//	          │
//	          └──→ Persister ──→ one compiledb.Command per source file
//
// Failures are isolated: a process with no source files is logged and
// dropped, and one record failing to persist does not stop the others.
package capture
