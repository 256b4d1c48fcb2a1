// Package bot is the compta Discord bot: thin glue between guild slash
// commands and the ledger engine. All bookkeeping decisions live in
// pkg/ledger; this package only parses options and renders embeds.
package bot

import (
	"errors"

	"compta/pkg/config"
	"compta/pkg/ledger"
	"compta/pkg/store"
	"compta/pkg/xlog"

	"github.com/bwmarrin/discordgo"
)

var logger = xlog.GetLogger()

// Worker runs one bot session against one guild.
type Worker struct {
	Name  string
	State string

	cfg     config.Discord
	book    *ledger.Book
	journal *store.Journal

	session *discordgo.Session
	done    chan struct{}
}

// New returns a Worker ready to Run.
func New(token string, cfg config.Discord, book *ledger.Book, journal *store.Journal) (w *Worker, err error) {
	if token == "" {
		err = errors.New("empty bot token")
		return
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return
	}

	w = &Worker{
		Name:    "Compta",
		State:   "Init",
		cfg:     cfg,
		book:    book,
		journal: journal,
		session: session,
		done:    make(chan struct{}),
	}

	logger.Info("compta worker created")

	return
}

// Run opens the session, registers the guild commands and blocks until
// Stop is called.
func (w *Worker) Run() (err error) {
	w.session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers

	w.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		logger.Infof("%s connected as %s", w.Name, r.User.Username)
	})
	w.session.AddHandler(w.onInteraction)

	err = w.session.Open()
	if err != nil {
		return
	}
	defer w.session.Close()

	_, err = w.session.ApplicationCommandBulkOverwrite(w.session.State.User.ID, w.cfg.GuildID, commands)
	if err != nil {
		return
	}

	go w.mirrorJournal()

	w.State = "Working"
	logger.Infof("%s running with %d commands on guild %s", w.Name, len(commands), w.cfg.GuildID)

	<-w.done

	return
}

func (w *Worker) Stop() {
	close(w.done)
}

// mirrorJournal follows the event journal and posts every new audit
// record to the configured log channel. Mirror failures never touch the
// ledger, they are logged and dropped.
func (w *Worker) mirrorJournal() {
	if w.cfg.LogChannelID == "" {
		return
	}

	ch := make(chan string, 64)
	go func() {
		err := w.journal.Follow(ch)
		if err != nil {
			logger.Errorf("journal follow failed with err:%s", err)
		}
	}()

	for line := range ch {
		_, err := w.session.ChannelMessageSend(w.cfg.LogChannelID, "```json\n"+line+"\n```")
		if err != nil {
			logger.Errorf("journal mirror send failed with err:%s", err)
		}
	}
}
