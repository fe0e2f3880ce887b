// Package procexec runs the external executables the pipeline depends on.
//
// A Runner wraps an Executor (the real one spawns processes through os/exec)
// and adds the behaviour every caller needs: Windows-only tools are launched
// through a compatibility launcher on other platforms, stdout is delivered
// line by line as the child produces it, and non-zero exits surface as a typed
// ExitError. Errors are fatal by default; WithNoExit marks them recoverable so
// per-file callers can record the failure and move on.
package procexec
