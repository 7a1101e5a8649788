package convex

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoDeploymentURL means neither VITE_CONVEX_URL nor CONVEX_URL is set.
var ErrNoDeploymentURL = errors.New("no Convex deployment URL: set VITE_CONVEX_URL or CONVEX_URL")

// FunctionError is an error returned by a Convex function itself, as
// opposed to a transport failure.
type FunctionError struct {
	Path    string
	Message string
	Data    json.RawMessage
}

func (e *FunctionError) Error() string {
	return fmt.Sprintf("convex function %s: %s", e.Path, e.Message)
}

// IsPaused reports whether the error indicates a paused deployment.
// Convex rejects all function calls with a "deployment is paused" message
// while a deployment is paused in the dashboard.
func IsPaused(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "paused")
}
