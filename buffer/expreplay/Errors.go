package expreplay

import "errors"

// ExpReplayError implements errors unique to an experience replay
// buffer.
type ExpReplayError struct {
	Op  string
	Err error
}

// Error satisifes the error interface
func (e *ExpReplayError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error
func (e *ExpReplayError) Unwrap() error {
	return e.Err
}

var errEmptyCache = errors.New("cache empty")

var errSizeMismatch = errors.New("field size mismatch")

var errIncompatibleSnapshot = errors.New("incompatible snapshot")

// ErrNoSnapshot is returned by LatestEpoch when a directory holds no
// buffer snapshots
var ErrNoSnapshot = errors.New("no buffer snapshot found")

// IsEmptyBuffer returns whether or not an error reports that a
// replay buffer is empty.
func IsEmptyBuffer(err error) bool {
	return errors.Is(err, errEmptyCache)
}

// IsSizeMismatch returns whether or not an error reports that a field
// of a transition does not have the size declared when the buffer was
// constructed.
func IsSizeMismatch(err error) bool {
	return errors.Is(err, errSizeMismatch)
}

// IsIncompatibleSnapshot returns whether or not an error reports that
// a snapshot was saved by a buffer with a different layout.
func IsIncompatibleSnapshot(err error) bool {
	return errors.Is(err, errIncompatibleSnapshot)
}
