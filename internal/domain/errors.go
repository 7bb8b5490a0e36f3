package domain

import "fmt"

// AuthenticationError reports a confirmation secret mismatch. The staged
// change survives it; nothing was written.
type AuthenticationError struct{}

func (e *AuthenticationError) Error() string {
	return "confirmation secret mismatch"
}

// CommitError reports a lock store write failure after the secret was already
// verified. The staged change is kept so the operator can retry.
type CommitError struct {
	Err error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("lock commit failed: %v", e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// SubscriptionError reports a failed or broken presence/lock subscription.
// Views keep their last-known rows and flag them stale rather than clearing.
type SubscriptionError struct {
	Source string
	Err    error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("%s subscription failed: %v", e.Source, e.Err)
}

func (e *SubscriptionError) Unwrap() error {
	return e.Err
}
