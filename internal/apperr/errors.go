// Package apperr holds the sentinel errors shared across voxnote packages.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrPersistence   = errors.New("persistence failed")
	ErrInvalidParams = errors.New("invalid parameters")
	ErrExtraction    = errors.New("could not extract title")
)
