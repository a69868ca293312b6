// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

package action

import (
	"context"
	"fmt"
	"time"

	"github.com/mediar-ai/terminator-sub003/pkg/logging"
	"github.com/mediar-ai/terminator-sub003/selector"
	"github.com/mediar-ai/terminator-sub003/types"
)

// verifyPollInterval is the re-check cadence of the post-action
// verification loop.
const verifyPollInterval = 100 * time.Millisecond

// VerificationFailure is the Cause of the Timeout error verify returns
// when the conditions did not pass before the deadline.
type VerificationFailure struct{ Outcome *VerificationOutcome }

func (f *VerificationFailure) Error() string { return f.Outcome.Details }

// verify waits until the exists / not-exists conditions both hold, or
// the verification deadline expires. The outcome is returned in both
// cases; on expiry the error wraps it as a verification failure.
func (e *Engine) verify(ctx context.Context, n types.Node, opts Options) (*VerificationOutcome, error) {
	log := logging.FromContext(ctx)

	timeout := opts.VerifyTimeout
	if timeout <= 0 {
		timeout = e.verifyTimeout
	}

	var existsSel, notExistsSel selector.Selector
	if opts.VerifyExists != "" {
		existsSel = selector.Parse(opts.VerifyExists)
		if inv, ok := existsSel.(selector.Invalid); ok {
			return nil, types.NewInvalidSelector(opts.VerifyExists, inv.Reason)
		}
	}
	if opts.VerifyNotExists != "" {
		notExistsSel = selector.Parse(opts.VerifyNotExists)
		if inv, ok := notExistsSel.(selector.Invalid); ok {
			return nil, types.NewInvalidSelector(opts.VerifyNotExists, inv.Reason)
		}
	}

	root, err := e.verifyRoot(ctx, n)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	deadline := start.Add(timeout)
	var details string
	for {
		ok, detail, err := e.checkConditions(ctx, root, existsSel, notExistsSel)
		if err != nil {
			return nil, err
		}
		details = detail
		if ok {
			outcome := &VerificationOutcome{
				Passed:    true,
				Method:    "selector",
				ElapsedMS: time.Since(start).Milliseconds(),
				Details:   details,
			}
			log.Debug("verification passed", "details", details, "elapsed_ms", outcome.ElapsedMS)
			return outcome, nil
		}
		if time.Now().After(deadline) {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(verifyPollInterval):
		}
	}

	outcome := &VerificationOutcome{
		Passed:    false,
		Method:    "selector",
		ElapsedMS: time.Since(start).Milliseconds(),
		Details:   details,
	}
	return outcome, &types.AutomationError{
		Kind:    types.KindTimeout,
		Message: "post-action verification did not pass",
		Elapsed: time.Since(start),
		Cause:   &VerificationFailure{Outcome: outcome},
	}
}

// verifyRoot picks the subtree verification queries run against: the
// element's window when reachable, else the backend root.
func (e *Engine) verifyRoot(ctx context.Context, n types.Node) (types.Node, error) {
	if win, err := n.Window(ctx); err == nil && win != nil {
		return win, nil
	}
	return e.backend.Root(ctx)
}

func (e *Engine) checkConditions(ctx context.Context, root types.Node, existsSel, notExistsSel selector.Selector) (bool, string, error) {
	ok := true
	details := ""
	if existsSel != nil {
		nodes, err := selector.Eval(ctx, e.backend, root, existsSel)
		if err != nil {
			return false, "", err
		}
		if len(nodes) == 0 {
			ok = false
			details = fmt.Sprintf("expected %q to match, found nothing", existsSel.String())
		} else {
			details = fmt.Sprintf("%q matched %d element(s)", existsSel.String(), len(nodes))
		}
	}
	if notExistsSel != nil {
		nodes, err := selector.Eval(ctx, e.backend, root, notExistsSel)
		if err != nil {
			return false, "", err
		}
		if len(nodes) > 0 {
			ok = false
			if details != "" {
				details += "; "
			}
			details += fmt.Sprintf("expected %q to match nothing, found %d", notExistsSel.String(), len(nodes))
		}
	}
	return ok, details, nil
}
