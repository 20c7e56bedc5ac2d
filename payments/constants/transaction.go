package constant

const (
	// DEPOSIT identifies credits to a client's available balance.
	DEPOSIT = "deposit"
	// WITHDRAWAL identifies debits from a client's available balance.
	WITHDRAWAL = "withdrawal"
	// DISPUTE identifies a claim against a prior deposit or withdrawal.
	DISPUTE = "dispute"
	// RESOLVE identifies the withdrawal of an open dispute.
	RESOLVE = "resolve"
	// CHARGEBACK identifies the reversal of a disputed transaction.
	CHARGEBACK = "chargeback"

	// CLEAN marks a transaction that was never disputed.
	CLEAN = "CLEAN"
	// DISPUTED marks a transaction whose funds are held.
	DISPUTED = "DISPUTED"
	// RESOLVED marks a dispute that was withdrawn.
	RESOLVED = "RESOLVED"
	// CHARGEDBACK marks a dispute that was upheld.
	CHARGEDBACK = "CHARGED_BACK"
)

// Input and output column names.
const (
	ColumnType      = "type"
	ColumnClient    = "client"
	ColumnTx        = "tx"
	ColumnAmount    = "amount"
	ColumnAvailable = "available"
	ColumnHeld      = "held"
	ColumnTotal     = "total"
	ColumnLocked    = "locked"
	ColumnCode      = "code"
	ColumnReason    = "reason"
)
