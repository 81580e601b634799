// Package torch drives the Torch CLI as an engine.Factory.
//
// Each session stages the normalized ROM inside the working directory, runs
// Torch with explicit source and destination directories, forwards its output
// to the logger, and moves the produced archive to the requested output path.
// Tests substitute the Executor so no Torch binary is required.
package torch
