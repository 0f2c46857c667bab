package model

import "errors"

// Storage-level errors shared by the Postgres and memory repositories.
var (
	// ErrRecordNotFound means a write targeted a row that does not exist.
	ErrRecordNotFound = errors.New("record not found")
	// ErrAlreadyExists means a unique constraint rejected the write.
	ErrAlreadyExists = errors.New("record already exists")
)
