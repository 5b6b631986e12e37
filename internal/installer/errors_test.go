package installer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKindString(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want string
	}{
		{ErrNone, "none"},
		{ErrTargetExists, "target_exists"},
		{ErrTargetIsSymlink, "target_is_symlink"},
		{ErrTargetNotFound, "target_not_found"},
		{ErrTargetNotDirectory, "target_not_directory"},
		{ErrNotApplicationRoot, "not_application_root"},
		{ErrArchiveOpenFailed, "archive_open_failed"},
		{ErrArchiveExtractFailed, "archive_extract_failed"},
		{ErrorKind(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.String())
		})
	}
}

func TestValidationResultMessage(t *testing.T) {
	tests := []struct {
		name   string
		result ValidationResult
		want   string
	}{
		{
			name:   "none",
			result: ValidationResult{Kind: ErrNone},
			want:   "no error",
		},
		{
			name:   "target exists interpolates path",
			result: ValidationResult{Kind: ErrTargetExists, Path: "/srv/quill/user/plugins/gallery"},
			want:   "destination /srv/quill/user/plugins/gallery already exists",
		},
		{
			name:   "symlink",
			result: ValidationResult{Kind: ErrTargetIsSymlink, Path: "/srv/quill/bin"},
			want:   "destination /srv/quill/bin is a symbolic link",
		},
		{
			name:   "not found",
			result: ValidationResult{Kind: ErrTargetNotFound, Path: "/srv/quill/missing"},
			want:   "destination /srv/quill/missing not found",
		},
		{
			name:   "not a directory",
			result: ValidationResult{Kind: ErrTargetNotDirectory, Path: "/srv/quill/file"},
			want:   "destination /srv/quill/file is not a directory",
		},
		{
			name:   "not an instance",
			result: ValidationResult{Kind: ErrNotApplicationRoot, Path: "/srv/other"},
			want:   "/srv/other is not a valid Quill instance",
		},
		{
			name:   "open failure",
			result: ValidationResult{Kind: ErrArchiveOpenFailed, Path: "/tmp/p.zip"},
			want:   "unable to open package archive /tmp/p.zip",
		},
		{
			name:   "extract failure",
			result: ValidationResult{Kind: ErrArchiveExtractFailed, Path: "/tmp/p.zip"},
			want:   "unable to extract package archive /tmp/p.zip",
		},
		{
			name:   "unknown kind",
			result: ValidationResult{Kind: ErrorKind(42), Path: "/anything"},
			want:   "an unknown error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.result.Message())
		})
	}
}
