// Package preflight provides readiness checks for the paths and services a
// campaign run depends on.
//
// The CLI "festmail config validate" command runs RunAll and prints one line
// per Result. Checks that need the network (CheckBrevo) only run when the
// caller asks for them, so validation works offline.
package preflight
