package store

import (
	"encoding/json"

	"compta/pkg/filedb"
)

// Journal is the append-only audit trail, one JSON record per line.
// It is never read back by the ledger; it exists for external inspection.
type Journal struct {
	fdb *filedb.Filedb
}

func OpenJournal(path string) (j *Journal, err error) {
	fdb, err := filedb.New(path)
	if err != nil {
		return
	}

	j = &Journal{fdb: fdb}

	return
}

func (j *Journal) Close() error {
	return j.fdb.Close()
}

// Append marshals v and appends it as one line.
func (j *Journal) Append(v any) (err error) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}

	return j.fdb.WriteLine(string(b) + "\n")
}

// Follow streams every new journal line to ch. Blocks, run in a goroutine.
func (j *Journal) Follow(ch chan<- string) error {
	return j.fdb.Tailf(ch)
}

// FirstLine and LastLine expose the journal bounds for the monitor app.
func (j *Journal) FirstLine() (string, error) {
	return j.fdb.ReadFirstLine()
}

func (j *Journal) LastLine() (string, error) {
	return j.fdb.ReadLastLine()
}
