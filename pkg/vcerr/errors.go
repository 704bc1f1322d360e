// Package vcerr defines the error taxonomy shared across the frame
// cipher, key envelope, and pipeline packages. Each sentinel names a
// kind of failure, not a type; callers match with errors.Is.
package vcerr

import "errors"

var (
	// ErrInputUnreadable: the video decoder could not open the source
	// or emitted an unexpected frame shape. Fatal; no outputs produced.
	ErrInputUnreadable = errors.New("vcerr: input video unreadable")

	// ErrOutputUnwritable: the encoder rejected a frame write.
	ErrOutputUnwritable = errors.New("vcerr: output video unwritable")

	// ErrKeyFileIO: the key file could not be created, written, or read
	// at its declared path.
	ErrKeyFileIO = errors.New("vcerr: key file I/O failure")

	// ErrWrongPasswordOrTampered: AES-GCM tag verification failed while
	// opening a sealed key file.
	ErrWrongPasswordOrTampered = errors.New("vcerr: wrong password or tampered key file")

	// ErrSchemeMismatch: the compatibility gate rejected a key file for
	// the requested scheme.
	ErrSchemeMismatch = errors.New("vcerr: key file does not match requested scheme")

	// ErrCancelled: an external cancellation was observed between
	// frames or during envelope seal.
	ErrCancelled = errors.New("vcerr: operation cancelled")
)
