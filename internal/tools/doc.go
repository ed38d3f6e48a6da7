// Package tools exposes WESTPA's command-line tools as callable values.
//
// Ownership boundary:
// - the registry of known tool names and their probed availability
// - flag normalization from keyword arguments to POSIX-style tokens
// - command-line assembly and execution for one simulation root
//
// A Tool is a plain descriptor: one value per external name, sharing all
// formatting and execution behavior through Command.
package tools
