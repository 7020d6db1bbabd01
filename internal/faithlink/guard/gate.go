// Package guard holds the request gates that run in front of protected
// handlers: rate limiting, slow down, sanitizing, authentication, role and
// tenant checks. Gates are plain functions over an Envelope; Middleware turns
// a pipeline of them into net/http middleware.
package guard

import "context"

// Gate inspects an envelope and either returns the (possibly updated)
// envelope to continue, or an error to stop. Rejections are *Error values;
// anything else is treated as an internal failure.
type Gate func(ctx context.Context, env Envelope) (Envelope, error)

// Pipeline runs gates in order and stops at the first error.
func Pipeline(gates ...Gate) Gate {
	return func(ctx context.Context, env Envelope) (Envelope, error) {
		for _, g := range gates {
			if g == nil {
				continue
			}
			var err error
			if env, err = g(ctx, env); err != nil {
				return env, err
			}
		}
		return env, nil
	}
}
