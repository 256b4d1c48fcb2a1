package corebot

import (
	"errors"
	"slices"
	"strings"

	"compta/pkg/config"
	"compta/pkg/info"
	"compta/pkg/xlog"

	"github.com/bwmarrin/discordgo"
)

var logger = xlog.GetLogger()

// Worker runs the utility bot session.
type Worker struct {
	Name  string
	State string

	cfg   config.Discord
	store *Store

	session *discordgo.Session
	done    chan struct{}
}

func New(token string, cfg config.Discord, store *Store) (w *Worker, err error) {
	if token == "" {
		err = errors.New("empty bot token")
		return
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return
	}

	w = &Worker{
		Name:    "Core",
		State:   "Init",
		cfg:     cfg,
		store:   store,
		session: session,
		done:    make(chan struct{}),
	}

	logger.Info("core worker created")

	return
}

var commands = []*discordgo.ApplicationCommand{
	{
		Name:        "say",
		Description: "Send a custom text response",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "name", Description: "Command name", Required: true},
		},
	},
	{
		Name:        "commands",
		Description: "List the available custom commands",
	},
	{
		Name:        "create",
		Description: "Create a custom command (admin only)",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "name", Description: "Command name", Required: true},
			{Type: discordgo.ApplicationCommandOptionString, Name: "response", Description: "Response text", Required: true},
		},
	},
	{
		Name:        "modif",
		Description: "Modify a custom command's name or response (admin only)",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "name", Description: "Command to modify", Required: true},
			{Type: discordgo.ApplicationCommandOptionString, Name: "new_name", Description: "New command name", Required: false},
			{Type: discordgo.ApplicationCommandOptionString, Name: "response", Description: "New response text", Required: false},
		},
	},
	{
		Name:        "delete",
		Description: "Delete a custom command (admin only)",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "name", Description: "Command to delete", Required: true},
		},
	},
	{
		Name:        "reload",
		Description: "Reload the custom commands from disk (admin only)",
	},
	{
		Name:        "ping",
		Description: "Check that the bot is alive",
	},
	{
		Name:        "version",
		Description: "Show the running bot version",
	},
}

func (w *Worker) Run() (err error) {
	w.session.Identify.Intents = discordgo.IntentsGuilds

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

	w.State = "Working"
	logger.Infof("%s running with %d commands on guild %s", w.Name, len(commands), w.cfg.GuildID)

	<-w.done

	return
}

func (w *Worker) Stop() {
	close(w.done)
}

func (w *Worker) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	switch i.ApplicationCommandData().Name {
	case "say":
		name := normalize(i.ApplicationCommandData().Options[0].StringValue())
		resp, ok := w.store.Lookup(name)
		if !ok {
			w.respond(i, "Unknown command: "+name)
			return
		}
		w.respond(i, resp)
	case "commands":
		names := w.store.Names()
		if len(names) == 0 {
			w.respond(i, "No custom command loaded.")
			return
		}
		w.respond(i, "Available: "+strings.Join(names, ", "))
	case "create":
		if !w.isAdmin(i) {
			w.respond(i, "Admin role required.")
			return
		}
		opts := options(i)
		name := normalize(opts["name"].StringValue())
		if name == "" {
			w.respond(i, "Empty command name.")
			return
		}
		err := w.store.Create(name, strings.TrimSpace(opts["response"].StringValue()))
		if err != nil {
			w.respondStoreErr(i, name, err)
			return
		}
		logger.Infof("custom command %s created by %s", name, actorID(i))
		w.respond(i, "Created: "+name)
	case "modif":
		if !w.isAdmin(i) {
			w.respond(i, "Admin role required.")
			return
		}
		opts := options(i)
		name := normalize(opts["name"].StringValue())
		var newName, resp string
		if o, ok := opts["new_name"]; ok {
			newName = normalize(o.StringValue())
		}
		if o, ok := opts["response"]; ok {
			resp = strings.TrimSpace(o.StringValue())
		}
		if newName == "" && resp == "" {
			w.respond(i, "Nothing to change.")
			return
		}
		err := w.store.Update(name, newName, resp)
		if err != nil {
			w.respondStoreErr(i, name, err)
			return
		}
		logger.Infof("custom command %s modified by %s", name, actorID(i))
		w.respond(i, "Modified: "+name)
	case "delete":
		if !w.isAdmin(i) {
			w.respond(i, "Admin role required.")
			return
		}
		name := normalize(i.ApplicationCommandData().Options[0].StringValue())
		err := w.store.Delete(name)
		if err != nil {
			w.respondStoreErr(i, name, err)
			return
		}
		logger.Infof("custom command %s deleted by %s", name, actorID(i))
		w.respond(i, "Deleted: "+name)
	case "reload":
		if !w.isAdmin(i) {
			w.respond(i, "Admin role required.")
			return
		}
		n, err := w.store.Load()
		if err != nil {
			logger.Errorf("command reload failed with err:%s", err)
			w.respond(i, "Reload failed.")
			return
		}
		logger.Infof("reloaded %d custom commands", n)
		w.respond(i, "Reloaded.")
	case "ping":
		w.respond(i, "pong")
	case "version":
		w.respond(i, info.String()+" instance "+info.InstanceID)
	}
}

func (w *Worker) respondStoreErr(i *discordgo.InteractionCreate, name string, err error) {
	switch {
	case errors.Is(err, ErrCommandExists):
		w.respond(i, "Command already exists: "+name)
	case errors.Is(err, ErrCommandNotFound):
		w.respond(i, "Unknown command: "+name)
	default:
		logger.Errorf("command store write failed with err:%s", err)
		w.respond(i, "Save failed.")
	}
}

func options(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := map[string]*discordgo.ApplicationCommandInteractionDataOption{}
	for _, o := range i.ApplicationCommandData().Options {
		m[o.Name] = o
	}
	return m
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func actorID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return "unknown"
}

func (w *Worker) isAdmin(i *discordgo.InteractionCreate) bool {
	if w.cfg.AdminRoleID == "" || i.Member == nil {
		return false
	}
	return slices.Contains(i.Member.Roles, w.cfg.AdminRoleID)
}

func (w *Worker) respond(i *discordgo.InteractionCreate, msg string) {
	var flags discordgo.MessageFlags
	if w.cfg.Ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}

	err := w.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: msg,
			Flags:   flags,
		},
	})
	if err != nil {
		logger.Errorf("interaction respond failed with err:%s", err)
	}
}
