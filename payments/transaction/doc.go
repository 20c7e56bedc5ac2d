// Package transaction defines the event model and balance transitions of the
// payments engine.
//
// Core flow:
//   - Event describes one decoded input record (deposit, withdrawal, dispute,
//     resolve or chargeback).
//   - ResolveOperation maps an event type to the Operation applied to a Balance.
//   - ApplyPosting applies an Operation to a Balance and returns the new state,
//     rejecting any result with a negative available or held amount.
//   - DisputeStatus.Transition walks the dispute lifecycle
//     CLEAN → DISPUTED → RESOLVED | CHARGED_BACK.
//
// Rejections are reported as DomainError values carrying a stable ErrorCode.
// Currency overflow is never a DomainError; it is returned wrapped so callers
// can tell a rejected event from a corrupted run.
package transaction
