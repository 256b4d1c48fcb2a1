package ledger

import (
	"errors"
	"time"

	"compta/pkg/money"
	"compta/pkg/ticketid"
)

// Table names under the data dir.
const (
	TableTickets  = "tickets"
	TableArchives = "archives"
)

var (
	// ErrInvalidAmount covers non-positive and non-finite amounts.
	ErrInvalidAmount = money.ErrInvalidAmount

	ErrTicketNotFound     = errors.New("ticket not found")
	ErrDuplicateID        = errors.New("ticket id already exists")
	ErrOverRepayment      = errors.New("amount exceeds remaining debt")
	ErrOutstandingBalance = errors.New("ticket still has an outstanding balance")
)

// DebtorShare is one debtor's portion of a ticket's total. Order matters
// only for display: the first listed share absorbs any rounding remainder.
type DebtorShare struct {
	Party  string      `json:"party"`
	Amount money.Cents `json:"amount"`
}

// Ticket is one debt obligation, from one or more debtors to one creditor.
// A ticket lives in the tickets table while open and moves verbatim (plus
// a closed_at stamp) into the archives table when it closes.
type Ticket struct {
	ID              string            `json:"id"`
	Category        ticketid.Category `json:"category"`
	Creator         string            `json:"creator"`
	DebtorShares    []DebtorShare     `json:"debtor_shares"`
	Creditor        string            `json:"creditor"`
	Memo            string            `json:"memo"`
	TotalAmount     money.Cents       `json:"total_amount"`
	RemainingAmount money.Cents       `json:"remaining_amount"`
	CreatedAt       time.Time         `json:"created_at"`
	ClosedAt        *time.Time        `json:"closed_at,omitempty"`
}

// Journal event kinds.
const (
	EventCreate = "CREATE"
	EventRepay  = "REPAY"
	EventClose  = "CLOSE"
)

// Event is one audit record. The ledger only ever appends these, it
// never reads them back.
type Event struct {
	Timestamp time.Time   `json:"timestamp"`
	Kind      string      `json:"event"`
	TicketID  string      `json:"ticket_id"`
	Amount    money.Cents `json:"amount,omitempty"`
	Actor     string      `json:"actor"`
}

// RepaymentResult reports the outcome of a repayment.
type RepaymentResult struct {
	Remaining money.Cents
	Closed    bool
}

// PartyBalance is one counterparty line of a balance report.
type PartyBalance struct {
	Owes   money.Cents `json:"owes"`
	IsOwed money.Cents `json:"is_owed"`
}

// BalanceReport aggregates all open tickets for one party.
//
// The per-party breakdown on the creditor side uses each debtor's
// original share, while the totals use the ticket's current remaining
// amount. Partial repayments therefore shrink the net before they shrink
// the breakdown. That mismatch is a deliberate display choice.
type BalanceReport struct {
	PerParty    map[string]PartyBalance `json:"per_party"`
	TotalOwes   money.Cents             `json:"owes"`
	TotalIsOwed money.Cents             `json:"is_owed"`
	Net         money.Cents             `json:"net"`
}
