package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"compta/pkg/bot"
	"compta/pkg/config"
	"compta/pkg/corebot"
	"compta/pkg/ledger"
	"compta/pkg/store"
	"compta/pkg/xlog"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
)

var logger = xlog.GetLogger()

var (
	fApp     string
	fLogDir  string
	fLogFile string
)

var (
	apps = map[string]bool{"compta": true, "core": true, "bm": true, "jm": true}
)

func init() {
	flag.StringVar(&fApp, "app", "", "")
	flag.StringVar(&fLogDir, "logdir", "", "")
	flag.StringVar(&fLogFile, "logfile", "", "")
}

func main() {
	var err error
	flag.Parse()

	if !apps[fApp] {
		validApps := ""
		for k := range apps {
			validApps += k + ", "
		}
		panic("invalid app, only (" + validApps + ") avaliable")
	}

	figure.NewFigure("compta", "", true).Print()

	// Bot tokens live in var.env, never in the yaml config
	_ = godotenv.Load("var.env")

	// Initialize the Shared config
	config.EasyInit()

	// Initialize the logger
	if fLogDir == "" {
		fLogDir = filepath.Join(config.Shared.DataDir, "logs")
	}
	if fLogFile == "" {
		fLogFile = fApp + ".log"
	}
	logPath := filepath.Join(fLogDir, fLogFile)
	xlog.Init(fApp, logPath)
	logger.Info(fApp + " started")
	logger.Infof("xlog in %s", logPath)

	// Handle signals
	go handleSignals()

	// Start the app
	switch fApp {
	case "compta":
		err = startCompta()
	case "core":
		err = startCore()
	case "bm":
		err = RunBenchmark()
	case "jm":
		err = startJournalMonitor()
	default:
		return
	}

	if err != nil {
		logger.Error(err)
		panic(err)
	}
}

// handleSignals handles linux signals
//
//	Function 1: Change log level via SIGUSR1 signal
//		docker exec <container_id> sh -c 'export XLOG_LVL=TRACE && kill -SIGUSR1 1'
func handleSignals() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGUSR1)

	for sig := range sigChan {
		if sig == syscall.SIGUSR1 {
			level := os.Getenv("XLOG_LVL")
			if level != "" {
				logger.SetLevel(level)
			}
		}
	}
}

// startCompta starts the ledger bot
func startCompta() (err error) {
	token := os.Getenv("COMPTA_TOKEN")

	st := store.New(config.Shared.DataDir)
	journal, err := store.OpenJournal(filepath.Join(config.Shared.DataDir, "events.log"))
	if err != nil {
		return
	}
	defer journal.Close()

	book := ledger.New(st, journal)

	w, err := bot.New(token, config.Shared.Discord, book, journal)
	if err != nil {
		return
	}

	return w.Run()
}

// startCore starts the utility bot
func startCore() (err error) {
	token := os.Getenv("CORE_TOKEN")

	csvPath := config.Shared.Discord.CommandsCSV
	if csvPath == "" {
		csvPath = filepath.Join(config.Shared.DataDir, "commands.csv")
	}

	cmdStore := corebot.NewStore(csvPath)
	n, err := cmdStore.Load()
	if err != nil {
		// the bot is still useful without custom commands
		logger.Warningf("custom commands not loaded from %s with err:%s", csvPath, err)
	} else {
		logger.Infof("loaded %d custom commands from %s", n, csvPath)
	}

	w, err := corebot.New(token, config.Shared.Discord, cmdStore)
	if err != nil {
		return
	}

	return w.Run()
}

// startJournalMonitor prints journal throughput every 30 seconds
func startJournalMonitor() (err error) {
	for {
		time.Sleep(30 * time.Second)
		err = runJournalMonitorOne()
		if err != nil {
			logger.Errorf("runJournalMonitorOne failed with err:%s", err)
		}
	}
}

// runJournalMonitorOne reads the journal bounds and reports the event
// count and time span since the first record.
func runJournalMonitorOne() (err error) {
	path := filepath.Join(config.Shared.DataDir, "events.log")

	b, err := os.ReadFile(path)
	if err != nil {
		return
	}
	count := bytes.Count(b, []byte("\n"))
	if count == 0 {
		fmt.Printf("Journal: %s is empty\n", path)
		return
	}

	journal, err := store.OpenJournal(path)
	if err != nil {
		return
	}
	defer journal.Close()

	firstLine, err := journal.FirstLine()
	if err != nil {
		return
	}
	lastLine, err := journal.LastLine()
	if err != nil {
		return
	}

	var first, last ledger.Event
	if err = json.Unmarshal([]byte(firstLine), &first); err != nil {
		return
	}
	if err = json.Unmarshal([]byte(lastLine), &last); err != nil {
		return
	}

	fmt.Printf(
		"Journal: %s holds %d events over %s, last %s %s at %s\n",
		path, count, last.Timestamp.Sub(first.Timestamp),
		last.Kind, last.TicketID, last.Timestamp.Format(time.RFC3339),
	)

	return
}
