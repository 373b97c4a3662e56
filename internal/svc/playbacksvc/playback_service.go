package playbacksvc

import "context"

// Invoker performs the privileged action once a request has been admitted.
type Invoker interface {
	// Invoke runs the action once, without retrying.
	// Returns whether it succeeded and a diagnostic suitable for display.
	Invoke(ctx context.Context) (succeeded bool, diagnostic string)
}
