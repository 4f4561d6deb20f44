package domain

import "errors"

// Rule violations are rejected before any state mutation and reported only
// to the acting player.
var (
	ErrCardNotInHand    = errors.New("card not in hand")
	ErrMustFollowSuit   = errors.New("must follow suit")
	ErrMustLeadSpadeAce = errors.New("must play ace of spades to start")
	ErrTrickResolving   = errors.New("trick is being resolved")
)

// ErrInvariant signals card accounting or turn order corruption. It should
// be unreachable with correct inputs; observing it means a design bug.
var ErrInvariant = errors.New("game invariant violated")
