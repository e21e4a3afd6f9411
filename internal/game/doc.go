// Package game implements the Minesweeper state machine: a session
// owning one board, reveal/flag/pause transitions, deferred first-action
// mine placement, iterative flood fill, win/loss detection, and the
// one-second game timer.
//
// A Session is an explicitly owned object. All mutations happen
// synchronously under the session mutex; the timer tick and the loss
// presentation delay are the only asynchronous boundaries, and both run
// through the session's injected scheduler so Close can cancel them
// before returning.
package game
