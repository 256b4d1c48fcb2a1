package bot

import (
	"errors"
	"fmt"
	"strings"

	"compta/pkg/ledger"
	"compta/pkg/money"
	"compta/pkg/store"
	"compta/pkg/ticketid"

	"github.com/bwmarrin/discordgo"
)

// Embed colors per ticket category, matching the palette users know.
const (
	colorP2P     = 0x3498db // blue
	colorGroup   = 0x2ecc71 // green
	colorRepay   = 0xe67e22 // orange
	colorNeutral = 0x95a5a6 // grey
)

func categoryColor(cat ticketid.Category) int {
	if cat == ticketid.CategoryGroup {
		return colorGroup
	}
	return colorP2P
}

func mention(id string) string {
	return "<@" + id + ">"
}

func ticketEmbed(id string, cat ticketid.Category, description, memo string, total money.Cents) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("New ticket (%s)", id),
		Description: description,
		Color:       categoryColor(cat),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Memo", Value: "`" + memo + "`"},
			{Name: "Total", Value: "`" + total.String() + "`"},
		},
	}
}

// splitLines renders one line per debtor, skipping shares the creditor
// owes to themselves.
func splitLines(shares []ledger.DebtorShare, creditor string) string {
	var lines []string
	for _, s := range shares {
		if s.Party == creditor {
			continue
		}
		lines = append(lines, mention(s.Party)+" owes `"+s.Amount.String()+"` to "+mention(creditor))
	}
	if len(lines) == 0 {
		return "Nothing owed, the creditor covers every share."
	}
	return strings.Join(lines, "\n")
}

func repayEmbed(id string, amount money.Cents, res ledger.RepaymentResult) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Repayment on %s", id),
		Description: fmt.Sprintf("Amount repaid: `%s`, remaining: `%s`", amount, res.Remaining),
		Color:       colorRepay,
	}
	if res.Closed {
		e.Description += "\nThe ticket is settled and archived."
	}
	return e
}

func closeEmbed(id string, force bool) *discordgo.MessageEmbed {
	desc := "The ticket is archived."
	if force {
		desc = "The remaining balance was written off and the ticket archived."
	}
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Ticket %s closed", id),
		Description: desc,
		Color:       colorNeutral,
	}
}

func balanceEmbed(user string, rep ledger.BalanceReport) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title: "Balance of " + mention(user),
		Color: colorNeutral,
	}

	if len(rep.PerParty) == 0 {
		e.Description = "No debt or credit."
	}

	for party, pb := range rep.PerParty {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
			Name:   "With",
			Value:  fmt.Sprintf("%s\nOwes: `%s`\nIs owed: `%s`", mention(party), pb.Owes, pb.IsOwed),
			Inline: true,
		})
	}

	e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
		Name:  "Net total",
		Value: "`" + rep.Net.String() + "`",
	})

	return e
}

func historyEmbed(user string, ts []ledger.Ticket) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title: "Tickets of " + mention(user),
		Color: colorNeutral,
	}

	if len(ts) == 0 {
		e.Description = "No ticket found."
		return e
	}

	for _, t := range ts {
		var debs []string
		for _, d := range t.DebtorShares {
			debs = append(debs, fmt.Sprintf("%s(`%s`)", mention(d.Party), d.Amount))
		}
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
			Name: fmt.Sprintf("%s - %s", t.ID, t.Category),
			Value: fmt.Sprintf("Debtors: %s\nCreditor: %s\nRemaining: `%s`\nMemo: %s",
				strings.Join(debs, ", "), mention(t.Creditor), t.RemainingAmount, t.Memo),
		})
	}

	return e
}

// earliestEmbed renders one open ticket in full detail.
func earliestEmbed(t ledger.Ticket) *discordgo.MessageEmbed {
	var debs []string
	for _, d := range t.DebtorShares {
		debs = append(debs, mention(d.Party))
	}

	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Ticket %s", t.ID),
		Color: categoryColor(t.Category),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Creator", Value: mention(t.Creator), Inline: true},
			{Name: "Debtor(s)", Value: strings.Join(debs, ",\n"), Inline: true},
			{Name: "Creditor", Value: mention(t.Creditor), Inline: true},
			{Name: "Remaining", Value: "`" + t.RemainingAmount.String() + "`"},
			{Name: "Memo", Value: "`" + t.Memo + "`", Inline: true},
		},
	}
}

// errorText maps engine errors to a user-facing message.
func errorText(err error) string {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount):
		return "The amount must be positive."
	case errors.Is(err, ledger.ErrTicketNotFound):
		return "Ticket not found."
	case errors.Is(err, ledger.ErrOverRepayment):
		return "The amount exceeds the remaining debt."
	case errors.Is(err, ledger.ErrOutstandingBalance):
		return "The ticket still has an outstanding balance. Use force to write it off."
	case errors.Is(err, store.ErrCorruptData):
		return "The ledger data could not be read. Ping an admin."
	default:
		return "Error: " + err.Error()
	}
}
