package ticket

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ismaiel54/trade-ticket/internal/order"
	"go.uber.org/zap"
)

var (
	// ErrSubmissionInFlight is returned when a submit or reset arrives
	// while an earlier submission is still outstanding. The call is
	// rejected synchronously; nothing is queued.
	ErrSubmissionInFlight = errors.New("a submission is already in flight")

	// ErrAwaitingReset is returned when submitting over an undismissed
	// receipt. The caller must Reset first.
	ErrAwaitingReset = errors.New("previous receipt not yet dismissed")

	// ErrNotRetryable is returned by Retry when the last failure had a
	// definite outcome. Resubmitting it unchanged could execute twice
	// under a different key, so a fresh Submit is required instead.
	ErrNotRetryable = errors.New("last failure is not retryable")
)

// Submitter issues the order to the trade service.
type Submitter interface {
	SubmitOrder(ctx context.Context, o order.OrderRequest) (order.TradeReceipt, error)
}

// Reconciler runs post-success bookkeeping. Implementations must be
// best-effort: nothing they do may fail the submission.
type Reconciler interface {
	AfterSuccess(ctx context.Context, receipt order.TradeReceipt)
}

// Journal persists submission attempts so the idempotency key survives a
// crash mid-attempt. Optional; a nil journal disables persistence.
type Journal interface {
	RecordAttempt(ctx context.Context, o order.OrderRequest, nowMillis int64) error
	LookupReceipt(ctx context.Context, requestID string) (order.TradeReceipt, bool, error)
	RecordReceipt(ctx context.Context, receipt order.TradeReceipt, topic string, nowMillis int64) error
	RecordFailure(ctx context.Context, requestID, detail string) error
}

// ambiguous matches submission errors whose server-side outcome is
// unknown (transport failures). Only those may be retried under the same
// request id.
type ambiguous interface {
	Ambiguous() bool
}

// Controller owns the at-most-one-in-flight guarantee and the idempotency
// contract for one logical order form. Independent forms get independent
// controllers; there is no cross-form serialization.
type Controller struct {
	submitter  Submitter
	reconciler Reconciler
	journal    Journal
	topic      string
	logger     *zap.Logger

	mu        sync.Mutex
	state     State
	lastOrder order.OrderRequest
}

// NewController creates a submission controller. reconciler and journal
// may be nil.
func NewController(submitter Submitter, reconciler Reconciler, journal Journal, receiptsTopic string, logger *zap.Logger) *Controller {
	return &Controller{
		submitter:  submitter,
		reconciler: reconciler,
		journal:    journal,
		topic:      receiptsTopic,
		logger:     logger,
		state:      State{Phase: PhaseIdle},
	}
}

// State returns a snapshot of the current submission state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Submit runs one logical submission attempt to completion and returns
// the terminal error, if any. The transition to Submitting happens before
// any network work starts, so a second Submit racing this one observes
// the in-flight state and is rejected without issuing a request.
//
// The request id is generated exactly once per logical attempt; a retry
// of the same attempt (see Retry) reuses it so the server can deduplicate.
func (c *Controller) Submit(ctx context.Context, o order.OrderRequest) error {
	// Invalid input never reaches the network and never changes state.
	if err := o.Check(); err != nil {
		return err
	}

	c.mu.Lock()
	switch c.state.Phase {
	case PhaseSubmitting:
		c.mu.Unlock()
		return ErrSubmissionInFlight
	case PhaseSucceeded:
		c.mu.Unlock()
		return ErrAwaitingReset
	}

	o.RequestID = uuid.NewString()
	c.state = State{Phase: PhaseSubmitting, RequestID: o.RequestID}
	c.lastOrder = o
	c.mu.Unlock()

	return c.dispatch(ctx, o)
}

// Resume replays a previously journaled attempt, e.g. after a process
// restart cut a submission short, keeping its request id. If the journal
// already holds the receipt the submission collapses locally without a
// network call; otherwise the order is reissued under the same key and
// the server deduplicates.
func (c *Controller) Resume(ctx context.Context, o order.OrderRequest) error {
	if o.RequestID == "" {
		return errors.New("resume requires the attempt's request id")
	}

	c.mu.Lock()
	switch c.state.Phase {
	case PhaseSubmitting:
		c.mu.Unlock()
		return ErrSubmissionInFlight
	case PhaseSucceeded:
		c.mu.Unlock()
		return ErrAwaitingReset
	}
	c.state = State{Phase: PhaseSubmitting, RequestID: o.RequestID}
	c.lastOrder = o
	c.mu.Unlock()

	return c.dispatch(ctx, o)
}

// Retry reissues the last failed attempt with the identical request id.
// Allowed only when the failure was ambiguous (no response received); a
// definite rejection needs corrected input and a fresh Submit.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Phase == PhaseSubmitting {
		c.mu.Unlock()
		return ErrSubmissionInFlight
	}
	if c.state.Phase != PhaseFailed {
		c.mu.Unlock()
		return ErrNotRetryable
	}
	var amb ambiguous
	if !errors.As(c.state.Err, &amb) || !amb.Ambiguous() {
		c.mu.Unlock()
		return ErrNotRetryable
	}

	o := c.lastOrder // same RequestID as the failed attempt
	c.state = State{Phase: PhaseSubmitting, RequestID: o.RequestID}
	c.mu.Unlock()

	c.logger.Info("retrying ambiguous submission",
		zap.String("request_id", o.RequestID),
	)
	return c.dispatch(ctx, o)
}

// Reset returns the controller to Idle after the caller has shown the
// receipt or error. An in-flight submission cannot be reset: financial
// submissions are not cancellable once sent, only awaited.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Phase == PhaseSubmitting {
		return ErrSubmissionInFlight
	}
	c.state = State{Phase: PhaseIdle}
	c.lastOrder = order.OrderRequest{}
	return nil
}

// dispatch runs the network leg of an attempt. The caller has already
// moved the state to Submitting.
func (c *Controller) dispatch(ctx context.Context, o order.OrderRequest) error {
	now := time.Now().UnixMilli()

	if c.journal != nil {
		if err := c.journal.RecordAttempt(ctx, o, now); err != nil {
			// Persistence is recovery insurance, not a submission gate.
			c.logger.Warn("failed to journal attempt",
				zap.String("request_id", o.RequestID),
				zap.Error(err),
			)
		}

		// A receipt already journaled under this request id means the
		// attempt completed before a crash or disconnect; collapse to it
		// without touching the network.
		if receipt, ok, err := c.journal.LookupReceipt(ctx, o.RequestID); err != nil {
			c.logger.Warn("failed to look up journaled receipt",
				zap.String("request_id", o.RequestID),
				zap.Error(err),
			)
		} else if ok {
			c.logger.Info("collapsed duplicate submission to journaled receipt",
				zap.String("request_id", o.RequestID),
				zap.String("journal_id", receipt.JournalID),
			)
			c.finishSuccess(ctx, receipt, false)
			return nil
		}
	}

	receipt, err := c.submitter.SubmitOrder(ctx, o)
	if err != nil {
		c.mu.Lock()
		c.state = State{Phase: PhaseFailed, RequestID: o.RequestID, Err: err}
		c.mu.Unlock()

		if c.journal != nil {
			if jerr := c.journal.RecordFailure(ctx, o.RequestID, err.Error()); jerr != nil {
				c.logger.Warn("failed to journal failure",
					zap.String("request_id", o.RequestID),
					zap.Error(jerr),
				)
			}
		}

		c.logger.Info("submission failed",
			zap.String("request_id", o.RequestID),
			zap.String("side", string(o.Side)),
			zap.Error(err),
		)
		return err
	}

	c.finishSuccess(ctx, receipt, true)
	return nil
}

// finishSuccess transitions to Succeeded, journals the receipt for new
// outcomes, and runs reconciliation. Reconciliation and journaling are
// both best-effort; the state stays Succeeded whatever they do.
func (c *Controller) finishSuccess(ctx context.Context, receipt order.TradeReceipt, journalIt bool) {
	c.mu.Lock()
	c.state = State{Phase: PhaseSucceeded, Receipt: &receipt}
	c.mu.Unlock()

	if journalIt && c.journal != nil {
		if err := c.journal.RecordReceipt(ctx, receipt, c.topic, time.Now().UnixMilli()); err != nil {
			c.logger.Warn("failed to journal receipt",
				zap.String("request_id", receipt.RequestID),
				zap.Error(err),
			)
		}
	}

	c.logger.Info("order submitted",
		zap.String("request_id", receipt.RequestID),
		zap.String("journal_id", receipt.JournalID),
		zap.String("side", string(receipt.Side)),
		zap.String("symbol", receipt.Symbol),
		zap.String("qty", receipt.Quantity.String()),
		zap.String("price", receipt.Price.String()),
	)

	if c.reconciler != nil {
		c.reconciler.AfterSuccess(ctx, receipt)
	}
}
