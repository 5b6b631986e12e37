package installer

import "fmt"

// ErrorKind classifies why a validation or install step was blocked.
// Kinds are mutually exclusive; validation records the first matching
// kind and stops.
type ErrorKind int

const (
	// ErrNone means the last operation finished without a blocking condition.
	ErrNone ErrorKind = iota

	// ErrTargetExists means the destination path already exists.
	ErrTargetExists

	// ErrTargetIsSymlink means the destination path is a symbolic link.
	ErrTargetIsSymlink

	// ErrTargetNotFound means the destination path does not exist.
	ErrTargetNotFound

	// ErrTargetNotDirectory means the destination exists but is not a directory.
	ErrTargetNotDirectory

	// ErrNotApplicationRoot means the destination root is not a Quill instance.
	ErrNotApplicationRoot

	// ErrArchiveOpenFailed means the package archive could not be opened.
	ErrArchiveOpenFailed

	// ErrArchiveExtractFailed means the package archive could not be extracted.
	ErrArchiveExtractFailed
)

// String returns a short identifier for the kind, used in logs.
func (k ErrorKind) String() string {
	switch k {
	case ErrNone:
		return "none"
	case ErrTargetExists:
		return "target_exists"
	case ErrTargetIsSymlink:
		return "target_is_symlink"
	case ErrTargetNotFound:
		return "target_not_found"
	case ErrTargetNotDirectory:
		return "target_not_directory"
	case ErrNotApplicationRoot:
		return "not_application_root"
	case ErrArchiveOpenFailed:
		return "archive_open_failed"
	case ErrArchiveExtractFailed:
		return "archive_extract_failed"
	default:
		return "unknown"
	}
}

// ValidationResult is the outcome of the most recent validation or
// install step: the blocking kind (possibly ErrNone) and the path it
// refers to. Each call overwrites the previous value, so callers read it
// immediately after the call that produced it.
type ValidationResult struct {
	Kind ErrorKind
	Path string
}

// Message renders the result as a human-readable sentence.
func (r ValidationResult) Message() string {
	switch r.Kind {
	case ErrNone:
		return "no error"
	case ErrTargetExists:
		return fmt.Sprintf("destination %s already exists", r.Path)
	case ErrTargetIsSymlink:
		return fmt.Sprintf("destination %s is a symbolic link", r.Path)
	case ErrTargetNotFound:
		return fmt.Sprintf("destination %s not found", r.Path)
	case ErrTargetNotDirectory:
		return fmt.Sprintf("destination %s is not a directory", r.Path)
	case ErrNotApplicationRoot:
		return fmt.Sprintf("%s is not a valid Quill instance", r.Path)
	case ErrArchiveOpenFailed:
		return fmt.Sprintf("unable to open package archive %s", r.Path)
	case ErrArchiveExtractFailed:
		return fmt.Sprintf("unable to extract package archive %s", r.Path)
	default:
		return "an unknown error occurred"
	}
}
