package frontier

import (
	"fmt"

	"github.com/iParadigms/frontier/store"
)

// StorageError and FilesystemError are re-exported from the store package so
// callers of CrawlFrontier can errors.As against a single set of types
// regardless of which layer raised the failure.
type StorageError = store.StorageError
type FilesystemError = store.FilesystemError

// SerializationError wraps an encoding or decoding failure that happens
// above the store layer (e.g. deriving a Domain from an unparsable seed
// URL). Per-record decode failures encountered while streaming a full shard
// are not surfaced this way; they are logged and skipped instead.
type SerializationError struct {
	Op  string
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialization error during %s: %v", e.Op, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

func newSerializationError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &SerializationError{Op: op, Err: err}
}

func newFilesystemError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &FilesystemError{Op: op, Err: err}
}
