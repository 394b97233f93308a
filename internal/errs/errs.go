// Package errs provides the structured error type shared across mindmap's
// components: config loading, the vector store, the encoder, the block
// parser, file and network I/O, process locks, and the request protocol.
package errs

import "fmt"

// Kind classifies a MindmapError by the subsystem that produced it.
type Kind string

const (
	// KindConfig covers missing home directories, malformed YAML, and
	// missing config files when one is required.
	KindConfig Kind = "CONFIG"
	// KindStore covers database open/query/transaction failures and
	// malformed vector blobs.
	KindStore Kind = "STORE"
	// KindEncode covers encoder initialization or inference failure.
	KindEncode Kind = "ENCODE"
	// KindParse covers block-extractor/Markdown parse failure for a file.
	KindParse Kind = "PARSE"
	// KindIO covers file read/write, directory walk, and network I/O.
	KindIO Kind = "IO"
	// KindLock covers lock file creation/acquisition failures.
	KindLock Kind = "LOCK"
	// KindProtocol covers malformed HTTP requests and missing parameters.
	KindProtocol Kind = "PROTOCOL"
)

// MindmapError is the structured error type used throughout the module.
type MindmapError struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *MindmapError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *MindmapError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is match two MindmapErrors by kind.
func (e *MindmapError) Is(target error) bool {
	t, ok := target.(*MindmapError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New creates a MindmapError with the given kind and message.
func New(kind Kind, message string, cause error) *MindmapError {
	return &MindmapError{Kind: kind, Message: message, Cause: cause}
}

// Wrap creates a MindmapError from an existing error. Returns nil if err is nil.
func Wrap(kind Kind, message string, err error) *MindmapError {
	if err == nil {
		return nil
	}
	return New(kind, message, err)
}

// GetKind extracts the Kind from an error, returning "" if it is not a MindmapError.
func GetKind(err error) Kind {
	var me *MindmapError
	if e, ok := err.(*MindmapError); ok {
		me = e
	}
	if me == nil {
		return ""
	}
	return me.Kind
}
