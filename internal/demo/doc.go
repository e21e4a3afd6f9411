// Package demo implements guided play: a scripted, deterministic
// Minesweeper demonstration that drives the game state machine with
// timed synthetic actions over a fixed mine layout.
//
// The script is a linear sequence of steps. Each step shows a caption,
// waits a fixed reading delay, performs its action, then waits its own
// advance delay before the next step begins. Every pending callback is
// tracked so pause and stop can cancel all of them synchronously;
// pausing mid-step re-runs that step from its beginning on resume,
// intra-step progress is not preserved.
package demo
