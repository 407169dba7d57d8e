// Package renameio provides a way to atomically create or replace a file or
// symbolic link.
//
// Atomicity is guaranteed by writing to a temporary file in the same
// directory and then renaming it over the destination. The persistent
// entropy pool is always written through this package, so a crash never
// leaves a half written pool behind.
//
// This package is not supported on Windows, where renames are not atomic
// across all filesystems.
package renameio
