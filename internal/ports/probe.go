package ports

import "context"

// ConnectivityProbe answers whether the remote site is reachable right now.
// Implementations must bound the check and report false on any failure.
type ConnectivityProbe interface {
	IsOnline(ctx context.Context) bool
}
