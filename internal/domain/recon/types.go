// Package recon owns the reconciliation run model: the run state machine, the
// committed matches, the discrepancies left behind, and the suggestions the
// scoring collaborator produced. Matches are immutable once created; a run is
// reversed only by re-running, never by editing.
package recon

// Status defines reconciliation run states
type Status string

const (
	StatusPending        Status = "PENDING"
	StatusInProgress     Status = "IN_PROGRESS"
	StatusCompleted      Status = "COMPLETED"
	StatusRequiresReview Status = "REQUIRES_REVIEW"
	StatusApproved       Status = "APPROVED"
	StatusCancelled      Status = "CANCELLED"
)

// Terminal reports whether no further transition can leave the status
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusCancelled
}

// Active reports whether the status blocks starting another run for the same
// account and period
func (s Status) Active() bool {
	return s == StatusPending || s == StatusInProgress || s == StatusRequiresReview
}

// Method defines how a reconciliation run commits matches
type Method string

const (
	// MethodAutomatic commits deterministic matches and promotes scored
	// suggestions above the auto-accept threshold
	MethodAutomatic Method = "AUTOMATIC"
	// MethodAssisted commits deterministic matches only; every suggestion waits
	// for a reviewer
	MethodAssisted Method = "ASSISTED"
)

// MatchType is the closed enumeration of strategies that can assert a match
type MatchType string

const (
	MatchTypeExact         MatchType = "EXACT"
	MatchTypeAmountAndDate MatchType = "AMOUNT_AND_DATE"
	MatchTypeAmountOnly    MatchType = "AMOUNT_ONLY"
	MatchTypeSplit         MatchType = "SPLIT"
	MatchTypeManual        MatchType = "MANUAL"
	MatchTypeMLSuggested   MatchType = "ML_SUGGESTED"
)

// DiscrepancyType classifies an unmatched item
type DiscrepancyType string

const (
	DiscrepancyUnknownDeposit    DiscrepancyType = "UNKNOWN_DEPOSIT"
	DiscrepancyUnknownWithdrawal DiscrepancyType = "UNKNOWN_WITHDRAWAL"
	DiscrepancyBankFee           DiscrepancyType = "BANK_FEE"
	DiscrepancyMissingInBank     DiscrepancyType = "MISSING_IN_BANK"
	DiscrepancyMissingInSystem   DiscrepancyType = "MISSING_IN_SYSTEM"
	DiscrepancyDuplicateBank     DiscrepancyType = "DUPLICATE_BANK"
	DiscrepancyDuplicateInternal DiscrepancyType = "DUPLICATE_INTERNAL"
	DiscrepancyOther             DiscrepancyType = "OTHER"
)

// DiscrepancyStatus defines the discrepancy review lifecycle
type DiscrepancyStatus string

const (
	DiscrepancyStatusPending            DiscrepancyStatus = "PENDING"
	DiscrepancyStatusUnderReview        DiscrepancyStatus = "UNDER_REVIEW"
	DiscrepancyStatusResolved           DiscrepancyStatus = "RESOLVED"
	DiscrepancyStatusRequiresAdjustment DiscrepancyStatus = "REQUIRES_ADJUSTMENT"
	DiscrepancyStatusIgnored            DiscrepancyStatus = "IGNORED"
)

// Terminal reports whether the discrepancy needs no further reviewer action
func (s DiscrepancyStatus) Terminal() bool {
	return s == DiscrepancyStatusResolved || s == DiscrepancyStatusRequiresAdjustment || s == DiscrepancyStatusIgnored
}
