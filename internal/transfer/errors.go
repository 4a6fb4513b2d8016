package transfer

import "fmt"

// DuplicateIDError reports two input transactions sharing an identifier.
// Provenance cannot be disambiguated, so the whole run is aborted.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate transaction id %q", e.ID)
}

// MalformedTransactionError reports a transaction without a usable posting.
// It is a warning: the transaction is excluded from matching and passed
// through unchanged while the rest of the run continues.
type MalformedTransactionError struct {
	ID     string
	Reason string
}

func (e *MalformedTransactionError) Error() string {
	return fmt.Sprintf("malformed transaction %q: %s", e.ID, e.Reason)
}
