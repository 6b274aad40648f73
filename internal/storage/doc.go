// Package storage writes run outputs and small state files to disk.
//
// All writes go through a temp file in the target directory followed by a
// rename, so a crash never leaves a half-written report behind. Paths that
// start with "~/" are expanded to the user's home directory. The same store
// keeps the Calendar API token cache as JSON.
package storage
