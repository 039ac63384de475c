package take

import "fmt"

// StorageError reports a failed filesystem operation on an asset or the
// catalog document. These indicate broken preconditions the caller
// cannot fix by retrying, unlike the boolean precondition failures.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// CatalogCorruptError reports an unreadable catalog document. It is
// fatal at startup: the service must not serve operations against a
// catalog it cannot parse.
type CatalogCorruptError struct {
	Path string
	Err  error
}

func (e *CatalogCorruptError) Error() string {
	return fmt.Sprintf("catalog document %s is corrupt: %v", e.Path, e.Err)
}

func (e *CatalogCorruptError) Unwrap() error { return e.Err }
