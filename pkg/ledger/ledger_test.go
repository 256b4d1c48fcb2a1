package ledger_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"compta/pkg/ledger"
	"compta/pkg/money"
	"compta/pkg/store"
	"compta/pkg/ticketid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBook(t *testing.T) (*ledger.Book, *store.Store) {
	t.Helper()

	dir := t.TempDir()
	st := store.New(dir)

	j, err := store.OpenJournal(filepath.Join(dir, "events.log"))
	require.Nil(t, err)
	t.Cleanup(func() { j.Close() })

	return ledger.New(st, j), st
}

func p2pShares(party string, amount money.Cents) []ledger.DebtorShare {
	return []ledger.DebtorShare{{Party: party, Amount: amount}}
}

func TestCreate(t *testing.T) {
	book, _ := newBook(t)

	id, err := book.Create(ticketid.CategoryP2P, "carol", p2pShares("alice", 1000), "bob", 1000, "pizza")
	require.Nil(t, err)
	assert.Equal(t, "a0001", id)

	tickets, err := book.Tickets()
	require.Nil(t, err)
	require.Contains(t, tickets, id)

	tk := tickets[id]
	assert.Equal(t, ticketid.CategoryP2P, tk.Category)
	assert.Equal(t, "carol", tk.Creator)
	assert.Equal(t, "bob", tk.Creditor)
	assert.Equal(t, "pizza", tk.Memo)
	assert.Equal(t, money.Cents(1000), tk.TotalAmount)
	assert.Equal(t, money.Cents(1000), tk.RemainingAmount)
	assert.False(t, tk.CreatedAt.IsZero())
	assert.Nil(t, tk.ClosedAt)
}

func TestCreateInvalidAmount(t *testing.T) {
	book, _ := newBook(t)

	_, err := book.Create(ticketid.CategoryP2P, "carol", p2pShares("alice", 0), "bob", 0, "")
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

	_, err = book.Create(ticketid.CategoryP2P, "carol", p2pShares("alice", -5), "bob", -5, "")
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
}

func TestCreateTrustsShares(t *testing.T) {
	book, _ := newBook(t)

	// the engine does not check sum(shares) == total, that is the
	// command layer's contract
	shares := []ledger.DebtorShare{{Party: "alice", Amount: 1}, {Party: "dave", Amount: 2}}
	id, err := book.Create(ticketid.CategoryGroup, "carol", shares, "bob", 1000, "lopsided")
	require.Nil(t, err)

	tickets, err := book.Tickets()
	require.Nil(t, err)
	assert.Equal(t, money.Cents(1000), tickets[id].TotalAmount)
}

func TestIDAllocationSkipsArchive(t *testing.T) {
	book, _ := newBook(t)

	for i := 0; i < 3; i++ {
		_, err := book.Create(ticketid.CategoryP2P, "c", p2pShares("alice", 100), "bob", 100, "")
		require.Nil(t, err)
	}

	// archive a0002, leaving live {a0001, a0003} and archived {a0002}
	err := book.Close("a0002", "c", true)
	require.Nil(t, err)

	id, err := book.Create(ticketid.CategoryP2P, "c", p2pShares("alice", 100), "bob", 100, "")
	require.Nil(t, err)
	assert.Equal(t, "a0004", id)
}

func TestCategoriesNumberIndependently(t *testing.T) {
	book, _ := newBook(t)

	id, err := book.Create(ticketid.CategoryP2P, "c", p2pShares("alice", 100), "bob", 100, "")
	require.Nil(t, err)
	assert.Equal(t, "a0001", id)

	id, err = book.Create(ticketid.CategoryGroup, "c", p2pShares("alice", 100), "bob", 100, "")
	require.Nil(t, err)
	assert.Equal(t, "b0001", id)
}

func TestRepayPartial(t *testing.T) {
	book, _ := newBook(t)

	id, err := book.Create(ticketid.CategoryP2P, "c", p2pShares("alice", 1000), "bob", 1000, "")
	require.Nil(t, err)

	res, err := book.Repay(id, 400, "alice")
	require.Nil(t, err)
	assert.Equal(t, money.Cents(600), res.Remaining)
	assert.False(t, res.Closed)

	tickets, err := book.Tickets()
	require.Nil(t, err)
	assert.Equal(t, money.Cents(600), tickets[id].RemainingAmount)
	assert.Equal(t, money.Cents(1000), tickets[id].TotalAmount)
}

func TestRepayFullAutoCloses(t *testing.T) {
	book, _ := newBook(t)

	id, err := book.Create(ticketid.CategoryP2P, "c", p2pShares("alice", 1000), "bob", 1000, "")
	require.Nil(t, err)

	res, err := book.Repay(id, 1000, "alice")
	require.Nil(t, err)
	assert.Equal(t, money.Cents(0), res.Remaining)
	assert.True(t, res.Closed)

	tickets, err := book.Tickets()
	require.Nil(t, err)
	assert.NotContains(t, tickets, id)

	archives, err := book.Archives()
	require.Nil(t, err)
	require.Contains(t, archives, id)
	assert.Equal(t, money.Cents(0), archives[id].RemainingAmount)
	require.NotNil(t, archives[id].ClosedAt)
	assert.False(t, archives[id].ClosedAt.IsZero())
}

func TestRepayOverRepayment(t *testing.T) {
	book, st := newBook(t)

	id, err := book.Create(ticketid.CategoryP2P, "c", p2pShares("alice", 500), "bob", 500, "")
	require.Nil(t, err)

	before, err := os.ReadFile(st.Path(ledger.TableTickets))
	require.Nil(t, err)

	_, err = book.Repay(id, 501, "alice")
	assert.ErrorIs(t, err, ledger.ErrOverRepayment)

	// the table on disk is byte-for-byte unchanged
	after, err := os.ReadFile(st.Path(ledger.TableTickets))
	require.Nil(t, err)
	assert.Equal(t, before, after)
}

func TestRepayErrors(t *testing.T) {
	book, _ := newBook(t)

	_, err := book.Repay("a0042", 100, "alice")
	assert.ErrorIs(t, err, ledger.ErrTicketNotFound)

	id, err := book.Create(ticketid.CategoryP2P, "c", p2pShares("alice", 500), "bob", 500, "")
	require.Nil(t, err)

	_, err = book.Repay(id, 0, "alice")
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

	_, err = book.Repay(id, -10, "alice")
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
}

func TestCloseRequiresForceOnOutstanding(t *testing.T) {
	book, _ := newBook(t)

	id, err := book.Create(ticketid.CategoryP2P, "c", p2pShares("alice", 500), "bob", 500, "")
	require.Nil(t, err)

	err = book.Close(id, "c", false)
	assert.ErrorIs(t, err, ledger.ErrOutstandingBalance)

	tickets, err := book.Tickets()
	require.Nil(t, err)
	assert.Contains(t, tickets, id)

	// force writes the debt off
	err = book.Close(id, "c", true)
	require.Nil(t, err)

	tickets, err = book.Tickets()
	require.Nil(t, err)
	assert.NotContains(t, tickets, id)

	archives, err := book.Archives()
	require.Nil(t, err)
	require.Contains(t, archives, id)
	assert.Equal(t, money.Cents(500), archives[id].RemainingAmount)
}

func TestCloseNotFound(t *testing.T) {
	book, _ := newBook(t)

	err := book.Close("a0042", "c", true)
	assert.ErrorIs(t, err, ledger.ErrTicketNotFound)
}

func TestBalanceTwoWay(t *testing.T) {
	book, _ := newBook(t)

	// alice owes bob 100, bob owes alice 40
	_, err := book.Create(ticketid.CategoryP2P, "c", p2pShares("alice", 100), "bob", 100, "")
	require.Nil(t, err)
	_, err = book.Create(ticketid.CategoryP2P, "c", p2pShares("bob", 40), "alice", 40, "")
	require.Nil(t, err)

	rep, err := book.Balance("alice")
	require.Nil(t, err)
	assert.Equal(t, money.Cents(100), rep.TotalOwes)
	assert.Equal(t, money.Cents(40), rep.TotalIsOwed)
	assert.Equal(t, money.Cents(-60), rep.Net)
	assert.Equal(t, ledger.PartyBalance{Owes: 100, IsOwed: 40}, rep.PerParty["bob"])

	rep, err = book.Balance("bob")
	require.Nil(t, err)
	assert.Equal(t, money.Cents(40), rep.TotalOwes)
	assert.Equal(t, money.Cents(100), rep.TotalIsOwed)
	assert.Equal(t, money.Cents(60), rep.Net)
	assert.Equal(t, ledger.PartyBalance{Owes: 40, IsOwed: 100}, rep.PerParty["alice"])
}

func TestBalanceAfterPartialRepayment(t *testing.T) {
	book, _ := newBook(t)

	id, err := book.Create(ticketid.CategoryP2P, "c", p2pShares("alice", 100), "bob", 100, "")
	require.Nil(t, err)

	_, err = book.Repay(id, 30, "alice")
	require.Nil(t, err)

	// creditor totals follow the remainder, the per-debtor breakdown
	// keeps the original share
	rep, err := book.Balance("bob")
	require.Nil(t, err)
	assert.Equal(t, money.Cents(70), rep.TotalIsOwed)
	assert.Equal(t, money.Cents(100), rep.PerParty["alice"].IsOwed)
}

func TestBalanceExcludesArchived(t *testing.T) {
	book, _ := newBook(t)

	id, err := book.Create(ticketid.CategoryP2P, "c", p2pShares("alice", 100), "bob", 100, "")
	require.Nil(t, err)
	_, err = book.Repay(id, 100, "alice")
	require.Nil(t, err)

	rep, err := book.Balance("bob")
	require.Nil(t, err)
	assert.Equal(t, money.Cents(0), rep.TotalIsOwed)
	assert.Equal(t, money.Cents(0), rep.Net)
}

func TestBalanceUnknownParty(t *testing.T) {
	book, _ := newBook(t)

	rep, err := book.Balance("nobody")
	require.Nil(t, err)
	assert.Equal(t, money.Cents(0), rep.TotalOwes)
	assert.Equal(t, money.Cents(0), rep.TotalIsOwed)
	assert.Equal(t, money.Cents(0), rep.Net)
	assert.Empty(t, rep.PerParty)
}

func TestBalanceSplitTicket(t *testing.T) {
	book, _ := newBook(t)

	shares := []ledger.DebtorShare{
		{Party: "alice", Amount: 34},
		{Party: "dave", Amount: 33},
		{Party: "erin", Amount: 33},
	}
	_, err := book.Create(ticketid.CategoryGroup, "bob", shares, "bob", 100, "dinner")
	require.Nil(t, err)

	rep, err := book.Balance("alice")
	require.Nil(t, err)
	assert.Equal(t, money.Cents(34), rep.TotalOwes)

	rep, err = book.Balance("bob")
	require.Nil(t, err)
	assert.Equal(t, money.Cents(100), rep.TotalIsOwed)
	assert.Equal(t, money.Cents(33), rep.PerParty["dave"].IsOwed)
}

func TestHistory(t *testing.T) {
	book, _ := newBook(t)

	_, err := book.Create(ticketid.CategoryP2P, "c", p2pShares("alice", 100), "bob", 100, "one")
	require.Nil(t, err)
	_, err = book.Create(ticketid.CategoryP2P, "c", p2pShares("bob", 40), "alice", 40, "two")
	require.Nil(t, err)
	_, err = book.Create(ticketid.CategoryP2P, "c", p2pShares("dave", 10), "erin", 10, "three")
	require.Nil(t, err)

	ts, err := book.History("alice")
	require.Nil(t, err)
	require.Len(t, ts, 2)
	assert.Equal(t, "a0001", ts[0].ID)
	assert.Equal(t, "a0002", ts[1].ID)

	ts, err = book.History("nobody")
	require.Nil(t, err)
	assert.Empty(t, ts)
}

func TestEarliest(t *testing.T) {
	book, _ := newBook(t)

	_, ok, err := book.Earliest()
	require.Nil(t, err)
	assert.False(t, ok)

	first, err := book.Create(ticketid.CategoryP2P, "c", p2pShares("alice", 100), "bob", 100, "one")
	require.Nil(t, err)
	second, err := book.Create(ticketid.CategoryGroup, "c", p2pShares("bob", 40), "alice", 40, "two")
	require.Nil(t, err)

	tk, ok, err := book.Earliest()
	require.Nil(t, err)
	require.True(t, ok)
	assert.Equal(t, first, tk.ID)

	// settling the oldest ticket promotes the next one
	_, err = book.Repay(first, 100, "alice")
	require.Nil(t, err)

	tk, ok, err = book.Earliest()
	require.Nil(t, err)
	require.True(t, ok)
	assert.Equal(t, second, tk.ID)
}

func TestConcurrentRepaymentsLoseNoUpdate(t *testing.T) {
	book, _ := newBook(t)

	id, err := book.Create(ticketid.CategoryP2P, "c", p2pShares("alice", 1000), "bob", 1000, "")
	require.Nil(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := book.Repay(id, 10, "alice")
			assert.Nil(t, err)
		}()
	}
	wg.Wait()

	tickets, err := book.Tickets()
	require.Nil(t, err)
	require.Contains(t, tickets, id)
	assert.Equal(t, money.Cents(500), tickets[id].RemainingAmount)
}

func TestTicketRoundTripOnDisk(t *testing.T) {
	book, st := newBook(t)

	id, err := book.Create(ticketid.CategoryP2P, "carol", p2pShares("alice", 1234), "bob", 1234, "memo")
	require.Nil(t, err)

	b, err := os.ReadFile(st.Path(ledger.TableTickets))
	require.Nil(t, err)

	// persisted field names are part of the on-disk contract
	for _, field := range []string{
		`"id"`, `"category"`, `"creator"`, `"debtor_shares"`, `"party"`,
		`"amount"`, `"creditor"`, `"memo"`, `"total_amount"`,
		`"remaining_amount"`, `"created_at"`,
	} {
		assert.Contains(t, string(b), field)
	}
	assert.Contains(t, string(b), id)
	assert.NotContains(t, string(b), `"closed_at"`)
}
