// Package gridsave provides a deferred batch-save coordinator for editable
// forecasting grids.
//
// This file re-exports the public API from pkg/gridsave for convenient
// top-level import:
//
//	session, err := gridsave.New(gridsave.Config{
//	    ServiceURL: "https://api.example.com",
//	    AuthKey:    "your-api-key",
//	})
package gridsave

import (
	sess "github.com/fintab-labs/gridsave/pkg/gridsave"
)

// Config holds the configuration for one save session.
type Config = sess.Config

// Session coordinates deferred batch saving for one grid.
type Session = sess.Session

// Option configures optional behavior of a Session.
type Option = sess.Option

// CellResult is the outcome of a cell operation.
type CellResult = sess.CellResult

// SaveStatus is the coarse save indicator.
type SaveStatus = sess.SaveStatus

// CellState is the lifecycle state of one editable cell.
type CellState = sess.CellState

// New creates a session with the given configuration.
func New(cfg Config, opts ...Option) (*Session, error) {
	return sess.New(cfg, opts...)
}
