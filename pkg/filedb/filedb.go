// Package filedb is a small append-only line file, used as the backing
// primitive for the ledger's event journal.
package filedb

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nxadm/tail"
)

type Filedb struct {
	File     *os.File
	FilePath string
}

func New(filePath string) (fdb *Filedb, err error) {
	fdb = &Filedb{
		FilePath: filePath,
	}
	err = fdb.Open()

	return
}

func (f *Filedb) Open() (err error) {
	err = os.MkdirAll(filepath.Dir(f.FilePath), 0755)
	if err != nil {
		return
	}

	f.File, err = os.OpenFile(f.FilePath, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return
	}
	return
}

func (f *Filedb) Close() (err error) {
	if f.File == nil {
		return
	}

	err = f.File.Close()
	if err != nil {
		return
	}

	f.File = nil

	return
}

// WriteLine appends s to the file. The caller supplies the trailing newline.
func (f *Filedb) WriteLine(s string) (err error) {
	_, err = f.File.WriteString(s)

	return
}

// ReadLastLine reads the last non-empty line of the file.
func (f *Filedb) ReadLastLine() (s string, err error) {
	stat, err := f.File.Stat()
	if err != nil {
		return
	}

	// Lines are short, so the final 1024 bytes are enough to recover
	// the last one.
	var b []byte
	var off int64
	size := stat.Size()
	if size == 0 {
		return
	}
	if size < 1024 {
		b = make([]byte, size)
	} else {
		b = make([]byte, 1024)
		off = size - 1024
	}

	_, err = f.File.ReadAt(b, off)
	if err != nil {
		return
	}

	txt := strings.Trim(string(b), " \n")
	txts := strings.Split(txt, "\n")

	if len(txts) == 0 {
		return
	}

	s = txts[len(txts)-1]

	return
}

// ReadFirstLine reads the first non-empty line of the file.
func (f *Filedb) ReadFirstLine() (s string, err error) {
	_, err = f.File.Seek(0, 0)
	if err != nil {
		return
	}

	reader := bufio.NewReader(f.File)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				break
			}
			return "", err
		}

		line = strings.TrimSpace(line)
		if line != "" {
			return line, nil
		}
	}

	return "", io.EOF
}

// Tailf follows the file from its current end and sends every new line
// to ch. It blocks until the tail fails, so run it in its own goroutine.
func (f *Filedb) Tailf(ch chan<- string) (err error) {
	ta, err := tail.TailFile(f.FilePath, tail.Config{
		Follow:        true,
		ReOpen:        true,
		CompleteLines: true,
		Location:      &tail.SeekInfo{Whence: io.SeekEnd},
	})
	if err != nil {
		return
	}

	for line := range ta.Lines {
		if line.Err != nil {
			// A broken line means the offset is unreliable, stop
			// instead of delivering garbled records.
			err = line.Err
			return
		}

		ch <- line.Text
	}

	return
}
