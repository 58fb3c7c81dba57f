// Package practice holds the dictation playback core: answer normalisation and
// evaluation, per-unit attempt logs, the session state machine that walks a
// learner through the units of a dictation, and the reduction of resolved
// units into a star summary.
//
// Everything here is synchronous and free of I/O. A Session is not safe for
// concurrent use; callers serialise access to it.
package practice
