package pipeline

import (
	"path/filepath"
	"time"

	"o2rconv/internal/catalog"
	"o2rconv/internal/engine"
	"o2rconv/internal/rom"
	"o2rconv/internal/verify"
)

// Stage names a pipeline state.
type Stage string

const (
	StageValidating      Stage = "validating"
	StageIdentifying     Stage = "identifying"
	StagePreparingEngine Stage = "preparing_engine"
	StageConverting      Stage = "converting"
	StageVerifying       Stage = "verifying"
	StageCompleted       Stage = "completed"
	StageFailed          Stage = "failed"
)

// Kind classifies a failed conversion.
type Kind string

const (
	KindNone         Kind = ""
	KindPrecondition Kind = "precondition"
	KindEngine       Kind = "engine"
	KindVerification Kind = "verification"
	KindUnknown      Kind = "unknown"
)

// SuccessToken is the terminal string reported for a successful conversion.
const SuccessToken = "success"

// Request identifies what to convert and where.
type Request struct {
	ROMPath    string
	OutputPath string
	// ConfigDir is the engine working directory holding config.yml and assets/.
	ConfigDir string
	// CopyTo, when set, receives a copy of the finished archive.
	CopyTo string
}

// ProgressSink receives human-readable progress messages. Calls happen on the
// goroutine that invoked Convert, in stage order.
type ProgressSink interface {
	Progress(stage Stage, message string)
}

// ProgressFunc adapts a function to ProgressSink.
type ProgressFunc func(stage Stage, message string)

// Progress calls f.
func (f ProgressFunc) Progress(stage Stage, message string) { f(stage, message) }

// Result is the terminal outcome of Convert.
type Result struct {
	OK        bool
	Kind      Kind
	Stage     Stage
	Message   string
	Err       error
	SessionID string

	OutputPath    string
	PublishedPath string
	Warnings      []string

	Identity     catalog.Identity
	Header       rom.Header
	Cartridge    engine.Cartridge
	Verification verify.Report
	Elapsed      time.Duration
}

// Terminal returns "success" or the failure message.
func (r Result) Terminal() string {
	if r.OK {
		return SuccessToken
	}
	return r.Message
}

type outcome int

const (
	outcomeContinue outcome = iota
	outcomeFatal
	outcomeCompleted
)

// StageResult is the outcome of one stage.
type StageResult struct {
	outcome outcome
	kind    Kind
	message string
	err     error
}

// Continue lets the pipeline advance to the next stage.
func Continue() StageResult { return StageResult{outcome: outcomeContinue} }

// Completed ends the pipeline successfully.
func Completed() StageResult { return StageResult{outcome: outcomeCompleted} }

// Fatal ends the pipeline with a classified failure.
func Fatal(kind Kind, message string, err error) StageResult {
	return StageResult{outcome: outcomeFatal, kind: kind, message: message, err: err}
}

// IsFatal reports whether the stage failed.
func (r StageResult) IsFatal() bool { return r.outcome == outcomeFatal }

// IsCompleted reports whether the stage finished the pipeline.
func (r StageResult) IsCompleted() bool { return r.outcome == outcomeCompleted }

// Kind returns the failure classification of a fatal result.
func (r StageResult) Kind() Kind { return r.kind }

// Message returns the user-facing failure message of a fatal result.
func (r StageResult) Message() string { return r.message }

// DefaultOutputPath returns where an archive for identity lands when the
// caller does not choose: the game's conventional archive name inside the
// working directory.
func DefaultOutputPath(configDir string, identity catalog.Identity) string {
	return filepath.Join(configDir, identity.Game.ArchiveName())
}
