// Package pipeline orchestrates a single ROM conversion.
//
// A conversion runs through a fixed sequence of stages:
//
//	validating -> identifying -> preparing_engine -> converting -> verifying -> completed
//
// Each stage reports a progress message to the caller's ProgressSink before it
// starts work. The first fatal stage result moves the conversion to failed;
// the engine session, working directory lock and ROM buffer are released
// exactly once on every exit path, including panics.
//
// Failures are classified into Kind values (precondition, engine,
// verification, unknown). Result.Terminal renders the single status string
// callers that predate Result still expect: "success" or the failure message.
//
// One Orchestrator runs one conversion at a time; a concurrent Convert on a
// busy instance fails fast instead of queueing. Separate processes targeting
// the same working directory are serialized by an advisory file lock.
package pipeline
