package main

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"compta/pkg/ledger"
	"compta/pkg/money"
	"compta/pkg/store"
	"compta/pkg/ticketid"
)

// RunBenchmark drives the ledger through full ticket lifecycles against
// a scratch data dir and reports the throughput.
func RunBenchmark() (err error) {
	dir, err := os.MkdirTemp("", "compta-bm-")
	if err != nil {
		return
	}
	defer os.RemoveAll(dir)

	st := store.New(dir)
	journal, err := store.OpenJournal(filepath.Join(dir, "events.log"))
	if err != nil {
		return
	}
	defer journal.Close()

	book := ledger.New(st, journal)

	targetTickets := 1_000
	start := time.Now()

	for i := 0; i < targetTickets; i++ {
		total := money.Cents(100 + rand.Int63n(100_000))
		debtor := fmt.Sprintf("user%d", 1+rand.Int63n(100))
		creditor := fmt.Sprintf("user%d", 101+rand.Int63n(100))

		var id string
		id, err = book.Create(ticketid.CategoryP2P, creditor,
			[]ledger.DebtorShare{{Party: debtor, Amount: total}}, creditor, total, "bm")
		if err != nil {
			return
		}

		// one partial repayment, then settle: every ticket ends archived
		half := total / 2
		if half > 0 {
			_, err = book.Repay(id, half, debtor)
			if err != nil {
				return
			}
		}
		_, err = book.Repay(id, total-half, debtor)
		if err != nil {
			return
		}
	}

	rate := int64(0)
	if int64(time.Since(start).Seconds()) > 0 {
		rate = int64(targetTickets) / int64(time.Since(start).Seconds())
	}
	fmt.Printf(
		"Benchmark: %d ticket lifecycles in %s at %s with rate %d/sec\n",
		targetTickets, time.Since(start), time.Now().Format(time.RFC3339), rate,
	)

	return
}
