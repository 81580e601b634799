// Package preflight provides the readiness checks that run before a
// conversion and the broader health report behind "o2rconv doctor".
//
// These checks run in two contexts:
//   - The pipeline calls Validator.Validate before loading the ROM. Any
//     failure aborts the conversion before an engine session exists.
//   - The CLI doctor command uses RunAll to display environment health
//     (engine binary, directory permissions, free disk space).
package preflight
