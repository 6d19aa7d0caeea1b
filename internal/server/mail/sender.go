// Package mail delivers verification messages. Delivery is best effort: the
// Notifier sends in the background and only logs failures.
package mail

import "context"

// Sender delivers a single verification message.
type Sender interface {
	SendVerificationEmail(ctx context.Context, address, code string) error
}
