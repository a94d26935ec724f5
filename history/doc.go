// Package history holds the shared, append-only message log of a group
// conversation and the reducers that bound what agents and strategies see.
//
// Store is written only by the group chat controller. Everyone else works on
// copies: Messages returns a fresh slice and Reducer implementations return a
// suffix of their input without touching the store.
package history
