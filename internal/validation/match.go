package validation

// ConfirmedInput is implemented by request payloads that carry a value
// together with a confirmation of it. The pair is checked during Validate;
// a mismatch is reported as an object-level violation.
type ConfirmedInput interface {
	// ConfirmedPair returns the primary value, its confirmation, and the
	// message to report when they do not match.
	ConfirmedPair() (primary, confirmation *string, message string)
}

// MatchingPair reports whether primary and confirmation are both present and
// equal. An absent primary, an absent confirmation, or both absent never
// count as a match.
func MatchingPair[T comparable](primary, confirmation *T) bool {
	if primary == nil || confirmation == nil {
		return false
	}
	return *primary == *confirmation
}
