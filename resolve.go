package spt

// ResolveTotal extracts the authoritative charge amount from a checkout
// session: the amount of the first totals entry whose type is "total".
// Returns [ErrTotalNotFound] when no such entry exists; completion must not
// proceed without a definitive total.
func ResolveTotal(session *CheckoutSession) (int, error) {
	if session == nil {
		return 0, ErrTotalNotFound
	}
	for _, entry := range session.Totals {
		if entry.Type == TotalTypeTotal {
			return entry.Amount, nil
		}
	}
	return 0, ErrTotalNotFound
}
