package research

import (
	"errors"

	"github.com/rotisserie/eris"
)

// ErrNoDocuments means every query exhausted every provider and the run
// produced nothing. Callers may retry the whole run.
var ErrNoDocuments = eris.New("research: no documents from any provider")

// IsRetryable reports whether a run-level error is worth retrying.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrNoDocuments)
}
