// Package main hosts the o2rconv CLI.
//
// Commands resolve configuration once through commandContext, build the
// Torch engine client and history store on demand, and hand the actual work
// to the internal packages: pipeline for conversions, watch for inbox mode,
// preflight for doctor checks.
package main
