package bot

import (
	"strings"

	"compta/pkg/info"
	"compta/pkg/ledger"
	"compta/pkg/money"
	"compta/pkg/ticketid"

	"github.com/bwmarrin/discordgo"
)

var commands = []*discordgo.ApplicationCommand{
	{
		Name:        "p2p",
		Description: "Create a debt ticket between two users",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionUser, Name: "debtor", Description: "Who owes", Required: true},
			{Type: discordgo.ApplicationCommandOptionUser, Name: "creditor", Description: "Who is owed", Required: true},
			{Type: discordgo.ApplicationCommandOptionNumber, Name: "amount", Description: "Amount in major units", Required: true},
			{Type: discordgo.ApplicationCommandOptionString, Name: "memo", Description: "Reason for the debt", Required: true},
		},
	},
	{
		Name:        "split",
		Description: "Create a ticket split between several debtors",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "debtors", Description: "Mentions of all debtors, first absorbs the odd cent", Required: true},
			{Type: discordgo.ApplicationCommandOptionUser, Name: "creditor", Description: "Who is owed", Required: true},
			{Type: discordgo.ApplicationCommandOptionNumber, Name: "amount", Description: "Total amount in major units", Required: true},
			{Type: discordgo.ApplicationCommandOptionString, Name: "memo", Description: "Reason for the debt", Required: true},
		},
	},
	{
		Name:        "repay",
		Description: "Repay part or all of a ticket",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "ticket_id", Description: "Ticket id", Required: true},
			{Type: discordgo.ApplicationCommandOptionNumber, Name: "amount", Description: "Amount repaid", Required: true},
		},
	},
	{
		Name:        "close",
		Description: "Close a ticket and archive it",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "ticket_id", Description: "Ticket id", Required: true},
			{Type: discordgo.ApplicationCommandOptionBoolean, Name: "force", Description: "Write off a remaining balance", Required: false},
		},
	},
	{
		Name:        "balance",
		Description: "Show a user's balance across all open tickets",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "User (defaults to you)", Required: false},
		},
	},
	{
		Name:        "history",
		Description: "List all open tickets involving a user",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "User concerned", Required: true},
		},
	},
	{
		Name:        "earliest",
		Description: "Show the oldest open ticket",
	},
	{
		Name:        "version",
		Description: "Show the running bot version",
	},
}

func (w *Worker) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	data := i.ApplicationCommandData()
	logger.Debugf("command /%s from %s", data.Name, actorID(i))

	switch data.Name {
	case "p2p":
		w.handleP2P(i)
	case "split":
		w.handleSplit(i)
	case "repay":
		w.handleRepay(i)
	case "close":
		w.handleClose(i)
	case "balance":
		w.handleBalance(i)
	case "history":
		w.handleHistory(i)
	case "earliest":
		w.handleEarliest(i)
	case "version":
		w.respondText(i, info.String()+" instance "+info.InstanceID)
	}
}

func (w *Worker) handleP2P(i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	debtor := opts["debtor"].UserValue(nil).ID
	creditor := opts["creditor"].UserValue(nil).ID
	memo := opts["memo"].StringValue()

	if debtor == creditor {
		w.respondText(i, "A user cannot owe money to themselves.")
		return
	}

	amount, err := money.ToCents(opts["amount"].FloatValue())
	if err != nil || amount <= 0 {
		w.respondText(i, "The amount must be positive.")
		return
	}

	shares := []ledger.DebtorShare{{Party: debtor, Amount: amount}}
	id, err := w.book.Create(ticketid.CategoryP2P, actorID(i), shares, creditor, amount, memo)
	if err != nil {
		w.respondText(i, errorText(err))
		return
	}

	w.respond(i, ticketEmbed(id, ticketid.CategoryP2P,
		mention(debtor)+" owes `"+amount.String()+"` to "+mention(creditor), memo, amount))
}

func (w *Worker) handleSplit(i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	creditor := opts["creditor"].UserValue(nil).ID
	memo := opts["memo"].StringValue()

	debtors := parseMentions(opts["debtors"].StringValue())
	if len(debtors) == 0 {
		w.respondText(i, "Mention at least one debtor.")
		return
	}

	total, err := money.ToCents(opts["amount"].FloatValue())
	if err != nil || total <= 0 {
		w.respondText(i, "The amount must be positive.")
		return
	}

	parts := money.Split(total, len(debtors))
	shares := make([]ledger.DebtorShare, len(debtors))
	for n, d := range debtors {
		shares[n] = ledger.DebtorShare{Party: d, Amount: parts[n]}
	}

	id, err := w.book.Create(ticketid.CategoryGroup, actorID(i), shares, creditor, total, memo)
	if err != nil {
		w.respondText(i, errorText(err))
		return
	}

	w.respond(i, ticketEmbed(id, ticketid.CategoryGroup, splitLines(shares, creditor), memo, total))
}

func (w *Worker) handleRepay(i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	id := opts["ticket_id"].StringValue()

	amount, err := money.ToCents(opts["amount"].FloatValue())
	if err != nil || amount <= 0 {
		w.respondText(i, "The amount must be positive.")
		return
	}

	res, err := w.book.Repay(id, amount, actorID(i))
	if err != nil {
		w.respondText(i, errorText(err))
		return
	}

	w.respond(i, repayEmbed(id, amount, res))
}

func (w *Worker) handleClose(i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	id := opts["ticket_id"].StringValue()

	force := false
	if opt, ok := opts["force"]; ok {
		force = opt.BoolValue()
	}

	err := w.book.Close(id, actorID(i), force)
	if err != nil {
		w.respondText(i, errorText(err))
		return
	}

	w.respond(i, closeEmbed(id, force))
}

func (w *Worker) handleBalance(i *discordgo.InteractionCreate) {
	opts := optionMap(i)

	user := actorID(i)
	if opt, ok := opts["user"]; ok {
		user = opt.UserValue(nil).ID
	}

	rep, err := w.book.Balance(user)
	if err != nil {
		w.respondText(i, errorText(err))
		return
	}

	w.respond(i, balanceEmbed(user, rep))
}

func (w *Worker) handleHistory(i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	user := opts["user"].UserValue(nil).ID

	ts, err := w.book.History(user)
	if err != nil {
		w.respondText(i, errorText(err))
		return
	}

	w.respond(i, historyEmbed(user, ts))
}

func (w *Worker) handleEarliest(i *discordgo.InteractionCreate) {
	t, ok, err := w.book.Earliest()
	if err != nil {
		w.respondText(i, errorText(err))
		return
	}
	if !ok {
		w.respondText(i, "No open ticket.")
		return
	}

	w.respond(i, earliestEmbed(t))
}

// actorID is the id of whoever issued the command.
func actorID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func optionMap(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	opts := i.ApplicationCommandData().Options
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, opt := range opts {
		m[opt.Name] = opt
	}
	return m
}

// parseMentions extracts user ids from a whitespace-separated mention
// list like "<@111> <@!222>".
func parseMentions(s string) (ids []string) {
	for _, tok := range strings.Fields(s) {
		id := strings.Trim(tok, "<@!>")
		if id != "" {
			ids = append(ids, id)
		}
	}
	return
}

func (w *Worker) respond(i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	err := w.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
	if err != nil {
		logger.Errorf("interaction respond failed with err:%s", err)
	}
}

func (w *Worker) respondText(i *discordgo.InteractionCreate, msg string) {
	err := w.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: msg,
		},
	})
	if err != nil {
		logger.Errorf("interaction respond failed with err:%s", err)
	}
}
