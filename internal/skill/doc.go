// Package skill implements the session-assessment engine: a per-frame state
// machine that evaluates a tracked instrument tip against one of the exercise
// modes, accumulates motion statistics, records a trajectory and finalises a
// scored SessionResult.
//
// The engine itself is pure. Frame acquisition and blob localisation are
// supplied through the FrameSource, SourceOpener and Locator interfaces so
// that camera-backed and replay-backed sessions share the same code path.
package skill
