// Package submit implements C8: shipping a built transaction to the network
// through one or more pluggable providers and recording the outcome. See
// spec.md §4.8.
//
// Every provider is independent and speaks its own wire format; Router is
// the only piece that knows about more than one provider: it tries them in
// order and stops at the first that accepts the transaction.
package submit

import (
	"context"
	"fmt"

	"github.com/aman-zulfiqar/arbbot/internal/errs"
	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

// Provider ships a signed transaction and returns an opaque handle:
// a signature for direct RPC submission, a bundle id for Jito.
type Provider interface {
	Name() string
	Submit(ctx context.Context, tx *solana.Transaction) (string, error)
}

// Router tries the configured Providers one after another and returns as
// soon as one succeeds. It implements txbuilder.Submitter structurally
// (Submit(ctx, tx) error) without importing internal/txbuilder, matching
// the project's narrow-interface-per-consumer convention already used by
// internal/arb and internal/txbuilder.
type Router struct {
	providers []Provider
	logger    *logrus.Logger
}

// NewRouter builds a Router over providers, tried in the given order.
func NewRouter(logger *logrus.Logger, providers ...Provider) *Router {
	if logger == nil {
		logger = logrus.New()
	}
	return &Router{providers: providers, logger: logger}
}

// Submit tries each provider in order, returning the first success. All
// providers failing is reported as a single submission-kind error carrying
// the last provider's cause.
func (r *Router) Submit(ctx context.Context, tx *solana.Transaction) error {
	if len(r.providers) == 0 {
		return fmt.Errorf("submit: no providers configured")
	}

	var lastErr error
	for _, p := range r.providers {
		handle, err := p.Submit(ctx, tx)
		if err != nil {
			r.logger.WithError(err).WithField("provider", p.Name()).Warn("submission provider failed")
			lastErr = err
			continue
		}
		r.logger.WithFields(logrus.Fields{"provider": p.Name(), "handle": handle}).Info("transaction submitted")
		return nil
	}
	return errs.New(errs.KindSubmission, "submit.Router", fmt.Errorf("all providers failed: %w", lastErr))
}
