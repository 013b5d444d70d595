package core

import "context"

// ShutdownFunc is the function signature for cleanup handlers during graceful
// shutdown. Handlers receive a context carrying the shutdown deadline and
// should return promptly once it is cancelled.
//
// Example:
//
//	var storeShutdown ShutdownFunc = func(ctx context.Context) error {
//	    return store.Close()
//	}
type ShutdownFunc func(ctx context.Context) error
