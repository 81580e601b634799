// Package fileutil holds file copy and move helpers used when archives are
// relocated out of the engine's working directory.
package fileutil
