package backup

import "github.com/cockroachdb/errors"

// Error kinds. Errors returned by the backup packages are marked with one of
// these so callers can classify them with errors.Is through any wrapping.
var (
	// ErrConfiguration marks a request rejected before any filesystem change.
	ErrConfiguration = errors.New("invalid backup request")

	// ErrStructureCreation marks a failure to create the backup root or one
	// of its extension folders.
	ErrStructureCreation = errors.New("cannot create backup structure")

	// ErrTraversalRead marks a directory that could not be listed.
	ErrTraversalRead = errors.New("cannot read directory")

	// ErrFileCopy marks a single file that could not be copied.
	ErrFileCopy = errors.New("file copy failed")
)

// configErrorf builds an ErrConfiguration error carrying a user-facing hint.
func configErrorf(hint, format string, args ...any) error {
	err := errors.Mark(errors.Newf(format, args...), ErrConfiguration)
	if hint != "" {
		err = errors.WithHint(err, hint)
	}
	return err
}
