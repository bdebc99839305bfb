// Package lock serializes booking writes per hotel so the conflict scan and the
// write that follows it cannot interleave with another request for the same hotel.
package lock

import "context"

// Unlock releases a held lock. It is safe to call once.
type Unlock func()

// HotelLocker hands out exclusive per-hotel locks.
type HotelLocker interface {
	Lock(ctx context.Context, hotel string) (Unlock, error)
}
