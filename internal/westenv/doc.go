// Package westenv builds the WESTPA shell environment for the current process.
//
// The WESTPA suite ships a setup script (westpa.sh) that exports the paths
// its tools need. Init sources that script in a subshell, captures a fixed
// set of variables and copies them into os.Environ. It is a one-time
// initialization step: call it before constructing any tool command. There is
// no teardown.
package westenv
