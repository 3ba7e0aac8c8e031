package config

const (
	// DefaultStorePath is where the library lives when STORE_PATH is unset.
	// The pebble backend treats this as a directory, the sqlite backend as
	// a file path.
	DefaultStorePath = "./data/library.db"

	// DefaultMaxRecordBytes caps a single book record. Embedded PDFs
	// dominate record size; 50 MB accommodates scanned books while keeping
	// a runaway upload from filling the disk.
	DefaultMaxRecordBytes = 50 * 1024 * 1024
)
