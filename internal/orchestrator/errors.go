package orchestrator

import "errors"

// ErrAborted is returned by Run when a systemic database error (or other
// unrecoverable condition) forced the run to ABORTED before all items
// were dispatched.
var ErrAborted = errors.New("orchestrator: run aborted")
