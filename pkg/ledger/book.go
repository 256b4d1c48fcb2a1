// Package ledger is the debt bookkeeping engine: ticket lifecycle
// (create, repay, close/archive) and balance aggregation.
//
// Every mutation is a whole-table read-modify-write against the store,
// serialized through one mutex so two concurrent repayments can never
// clobber each other's decrement. Reads load the table once and compute
// from that snapshot.
package ledger

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"compta/pkg/money"
	"compta/pkg/store"
	"compta/pkg/ticketid"
	"compta/pkg/xlog"
)

var logger = xlog.GetLogger()

// Book is the single-writer ledger engine.
type Book struct {
	mu      sync.Mutex
	store   *store.Store
	journal *store.Journal

	now func() time.Time
}

func New(st *store.Store, journal *store.Journal) *Book {
	return &Book{
		store:   st,
		journal: journal,
		now:     time.Now,
	}
}

// Create opens a new ticket and returns its allocated id.
//
// The sum of the shares is trusted to equal total; callers build shares
// with money.Split. A non-positive total is rejected regardless.
func (b *Book) Create(cat ticketid.Category, creator string, shares []DebtorShare, creditor string, total money.Cents, memo string) (id string, err error) {
	if total <= 0 {
		err = fmt.Errorf("%w: total %s", ErrInvalidAmount, total)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	tickets, err := b.load(TableTickets)
	if err != nil {
		return
	}
	archives, err := b.load(TableArchives)
	if err != nil {
		return
	}

	// Ids must stay unique across live and archived tickets.
	ids := make([]string, 0, len(tickets)+len(archives))
	for tid := range tickets {
		ids = append(ids, tid)
	}
	for tid := range archives {
		ids = append(ids, tid)
	}
	id = ticketid.Next(cat, ids)

	if _, ok := tickets[id]; ok {
		// Allocation scans both tables, so this only fires if the
		// single-writer discipline was broken somewhere.
		err = fmt.Errorf("%w: %s", ErrDuplicateID, id)
		return
	}

	tickets[id] = Ticket{
		ID:              id,
		Category:        cat,
		Creator:         creator,
		DebtorShares:    shares,
		Creditor:        creditor,
		Memo:            memo,
		TotalAmount:     total,
		RemainingAmount: total,
		CreatedAt:       b.now().UTC(),
	}

	err = b.store.Save(TableTickets, tickets)
	if err != nil {
		return
	}

	b.logEvent(Event{Kind: EventCreate, TicketID: id, Amount: total, Actor: creator})

	return
}

// Repay decreases a ticket's remaining amount. Reaching exactly zero
// archives the ticket in the same operation, against the same snapshot.
func (b *Book) Repay(id string, amount money.Cents, actor string) (res RepaymentResult, err error) {
	if amount <= 0 {
		err = fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	tickets, err := b.load(TableTickets)
	if err != nil {
		return
	}

	t, ok := tickets[id]
	if !ok {
		err = fmt.Errorf("%w: %s", ErrTicketNotFound, id)
		return
	}

	if amount > t.RemainingAmount {
		err = fmt.Errorf("%w: %s > %s on %s", ErrOverRepayment, amount, t.RemainingAmount, id)
		return
	}

	t.RemainingAmount -= amount
	closed := t.RemainingAmount == 0

	if closed {
		err = b.archiveLocked(tickets, t)
	} else {
		tickets[id] = t
		err = b.store.Save(TableTickets, tickets)
	}
	if err != nil {
		return
	}

	b.logEvent(Event{Kind: EventRepay, TicketID: id, Amount: amount, Actor: actor})
	if closed {
		b.logEvent(Event{Kind: EventClose, TicketID: id, Actor: actor})
	}

	res = RepaymentResult{Remaining: t.RemainingAmount, Closed: closed}

	return
}

// Close moves a ticket into the archive. A ticket with a nonzero
// remainder is only closed when force is set: that is a write-off, and
// it should never happen by accident.
func (b *Book) Close(id, actor string, force bool) (err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	tickets, err := b.load(TableTickets)
	if err != nil {
		return
	}

	t, ok := tickets[id]
	if !ok {
		err = fmt.Errorf("%w: %s", ErrTicketNotFound, id)
		return
	}

	if t.RemainingAmount > 0 && !force {
		err = fmt.Errorf("%w: %s has %s left", ErrOutstandingBalance, id, t.RemainingAmount)
		return
	}

	err = b.archiveLocked(tickets, t)
	if err != nil {
		return
	}

	b.logEvent(Event{Kind: EventClose, TicketID: id, Actor: actor})

	return
}

// archiveLocked stamps closed_at, removes the ticket from the live table
// and inserts it into the archive, persisting both. Caller holds b.mu.
func (b *Book) archiveLocked(tickets map[string]Ticket, t Ticket) (err error) {
	now := b.now().UTC()
	t.ClosedAt = &now
	delete(tickets, t.ID)

	archives, err := b.load(TableArchives)
	if err != nil {
		return
	}
	archives[t.ID] = t

	err = b.store.Save(TableTickets, tickets)
	if err != nil {
		return
	}

	return b.store.Save(TableArchives, archives)
}

// Balance scans the live tickets once and aggregates what party owes and
// is owed, per counterparty and in total. An unknown party yields an
// all-zero report.
func (b *Book) Balance(party string) (rep BalanceReport, err error) {
	tickets, err := b.load(TableTickets)
	if err != nil {
		return
	}

	rep.PerParty = map[string]PartyBalance{}

	for _, t := range tickets {
		for _, d := range t.DebtorShares {
			if d.Party != party {
				continue
			}
			rep.TotalOwes += d.Amount
			pb := rep.PerParty[t.Creditor]
			pb.Owes += d.Amount
			rep.PerParty[t.Creditor] = pb
		}

		if t.Creditor == party {
			// Totals track the live remainder, the breakdown keeps
			// each debtor's original share.
			rep.TotalIsOwed += t.RemainingAmount
			for _, d := range t.DebtorShares {
				pb := rep.PerParty[d.Party]
				pb.IsOwed += d.Amount
				rep.PerParty[d.Party] = pb
			}
		}
	}

	rep.Net = rep.TotalIsOwed - rep.TotalOwes

	return
}

// History returns the live tickets naming party as a debtor or as the
// creditor, sorted by id.
func (b *Book) History(party string) (ts []Ticket, err error) {
	tickets, err := b.load(TableTickets)
	if err != nil {
		return
	}

	for _, t := range tickets {
		if t.Creditor == party {
			ts = append(ts, t)
			continue
		}
		for _, d := range t.DebtorShares {
			if d.Party == party {
				ts = append(ts, t)
				break
			}
		}
	}

	sort.Slice(ts, func(i, j int) bool { return ts[i].ID < ts[j].ID })

	return
}

// Earliest returns the oldest open ticket, by creation time then id.
// The second return is false when no ticket is open.
func (b *Book) Earliest() (t Ticket, ok bool, err error) {
	tickets, err := b.load(TableTickets)
	if err != nil {
		return
	}

	for _, c := range tickets {
		older := c.CreatedAt.Before(t.CreatedAt) ||
			(c.CreatedAt.Equal(t.CreatedAt) && c.ID < t.ID)
		if !ok || older {
			t = c
			ok = true
		}
	}

	return
}

// Tickets returns a snapshot of the live table.
func (b *Book) Tickets() (map[string]Ticket, error) {
	return b.load(TableTickets)
}

// Archives returns a snapshot of the archive table.
func (b *Book) Archives() (map[string]Ticket, error) {
	return b.load(TableArchives)
}

func (b *Book) load(table string) (tickets map[string]Ticket, err error) {
	tickets = map[string]Ticket{}
	err = b.store.Load(table, &tickets)

	return
}

// logEvent appends one audit record. A failed append is logged and
// swallowed: the economic operation already persisted, and losing an
// audit line is preferable to failing it after the fact.
func (b *Book) logEvent(e Event) {
	e.Timestamp = b.now().UTC()

	err := b.journal.Append(e)
	if err != nil {
		logger.Errorf("journal append failed for %s %s with err:%s", e.Kind, e.TicketID, err)
	}
}
