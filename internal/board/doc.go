// Package board implements the Minesweeper grid model: cell state,
// mine placement with a first-action safe zone, and neighbor-mine
// adjacency counts.
//
// The board is a plain data structure with no locking; callers that
// mutate it concurrently must provide their own synchronization
// (internal/game owns a board behind a session mutex).
package board
