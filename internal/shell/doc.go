// Package shell runs command strings through a located POSIX shell.
//
// Ownership boundary:
// - shell discovery
// - command-string execution and exit-status capture
// - token quoting for assembled command lines
package shell
