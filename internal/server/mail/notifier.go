package mail

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/eatsauth/internal/logging"
)

// DefaultTimeout bounds a single background send.
const DefaultTimeout = 10 * time.Second

// Notifier sends verification mail in the background. Callers never observe
// delivery errors; they are logged.
type Notifier struct {
	sender  Sender
	log     logging.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewNotifier(sender Sender, log logging.Logger, timeout time.Duration) *Notifier {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Notifier{
		sender:  sender,
		log:     log.With("module", "notifier"),
		timeout: timeout,
	}
}

// NotifyVerification schedules delivery of code to address and returns
// immediately. The send outlives ctx's cancellation but keeps its values.
func (n *Notifier) NotifyVerification(ctx context.Context, address, code string) {
	sendCtx := context.WithoutCancel(ctx)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		ctx, cancel := context.WithTimeout(sendCtx, n.timeout)
		defer cancel()

		if err := n.sender.SendVerificationEmail(ctx, address, code); err != nil {
			n.log.Error(ctx, "verification email failed", "to", address, "error", err)
			return
		}
		n.log.Debug(ctx, "verification email sent", "to", address)
	}()
}

// Wait blocks until all in-flight sends have finished.
func (n *Notifier) Wait() {
	n.wg.Wait()
}
