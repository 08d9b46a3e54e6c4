package observe

import (
	stderrors "errors"
	"strings"

	"github.com/vango-dev/stateart/internal/errors"
)

// Kind returns the low-cardinality kind of a dispatch action: "set",
// "transition", "load", "merge", "dispatch" or "action".
func Kind(action string) string {
	verb, _, _ := strings.Cut(action, " ")
	switch verb {
	case "set", "transition", "load", "merge", "dispatch":
		return verb
	}
	return "action"
}

// errorCode returns the StoreError code of err, or "action" for errors
// returned by user code.
func errorCode(err error) string {
	var se *errors.StoreError
	if stderrors.As(err, &se) && se.Code != "" {
		return se.Code
	}
	return "action"
}
