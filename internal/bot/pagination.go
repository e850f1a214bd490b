package bot

import (
	"fmt"
	"strings"

	"studiobook/internal/models"
	"studiobook/internal/view"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	clientsPerPage = 8
	daysPerPage    = 5
)

type PaginationParams struct {
	ChatID       int64
	MessageID    int // 0 sends a new message
	Page         int
	Title        string
	PagePrefix   string
	BackCallback string
}

// renderPaginatedList draws one page of a list with navigation buttons.
// renderer fills the body and item buttons for [startIdx, endIdx).
func (b *Bot) renderPaginatedList(params PaginationParams, totalCount, perPage int, renderer func(startIdx, endIdx int) (string, [][]tgbotapi.InlineKeyboardButton)) {
	text, markup := paginate(params, totalCount, perPage, renderer)
	b.show(params.ChatID, params.MessageID, text, &markup)
}

func paginate(params PaginationParams, totalCount, perPage int, renderer func(startIdx, endIdx int) (string, [][]tgbotapi.InlineKeyboardButton)) (string, tgbotapi.InlineKeyboardMarkup) {
	if params.Page < 0 {
		params.Page = 0
	}
	totalPages := (totalCount + perPage - 1) / perPage
	if params.Page >= totalPages && totalPages > 0 {
		params.Page = totalPages - 1
	}

	startIdx := params.Page * perPage
	endIdx := min(startIdx+perPage, totalCount)

	content, keyboard := renderer(startIdx, endIdx)

	var message strings.Builder
	message.WriteString(params.Title)
	message.WriteString("\n\n")
	if totalPages > 1 {
		fmt.Fprintf(&message, "Page %d of %d\n\n", params.Page+1, totalPages)
	}
	message.WriteString(content)

	var navButtons []tgbotapi.InlineKeyboardButton
	if params.Page > 0 {
		navButtons = append(navButtons, tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", fmt.Sprintf("%s%d", params.PagePrefix, params.Page-1)))
	}
	if endIdx < totalCount {
		navButtons = append(navButtons, tgbotapi.NewInlineKeyboardButtonData("Next ➡️", fmt.Sprintf("%s%d", params.PagePrefix, params.Page+1)))
	}
	if len(navButtons) > 0 {
		keyboard = append(keyboard, navButtons)
	}

	if params.BackCallback != "" {
		label := "⬅️ Menu"
		if params.BackCallback == cbAbort {
			label = "✖ Cancel"
		}
		keyboard = append(keyboard, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, params.BackCallback),
		))
	}

	return message.String(), tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// renderClients is the client manager: every client with its booking count
// and a delete button.
func (b *Bot) renderClients(params PaginationParams) {
	rows := view.ClientRows(b.studio.Clients(), b.studio.Bookings())
	if len(rows) == 0 {
		b.show(params.ChatID, params.MessageID, msgNoClients, nil)
		return
	}

	params.Title = fmt.Sprintf("👥 <b>Clients</b> (%d)", len(rows))
	params.PagePrefix = cbClientsPage
	params.BackCallback = cbMenu

	b.renderPaginatedList(params, len(rows), clientsPerPage, func(startIdx, endIdx int) (string, [][]tgbotapi.InlineKeyboardButton) {
		var content strings.Builder
		var keyboard [][]tgbotapi.InlineKeyboardButton

		for i, r := range rows[startIdx:endIdx] {
			fmt.Fprintf(&content, "%d. <b>%s</b>\n", startIdx+i+1, esc(r.Client.Name))
			fmt.Fprintf(&content, "   📞 %s\n", esc(r.Client.Contact))
			fmt.Fprintf(&content, "   🎵 bookings: %d\n\n", r.Bookings)

			keyboard = append(keyboard, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🗑 "+r.Client.Name, cbDeleteClient+r.Client.ID),
			))
		}
		return content.String(), keyboard
	})
}

// renderClientPicker is the booking dialog: pick the client for the pending slot.
func (b *Bot) renderClientPicker(params PaginationParams, date, timeSlot string) {
	clients := b.studio.Clients()
	if len(clients) == 0 {
		b.show(params.ChatID, params.MessageID, msgNoClients, nil)
		return
	}

	params.Title = fmt.Sprintf("➕ Book <b>%s</b>, %s\nChoose a client:", esc(view.FormatDayHeading(date)), esc(timeSlot))
	params.PagePrefix = cbPickPage
	params.BackCallback = cbAbort

	b.renderPaginatedList(params, len(clients), clientsPerPage, func(startIdx, endIdx int) (string, [][]tgbotapi.InlineKeyboardButton) {
		var keyboard [][]tgbotapi.InlineKeyboardButton
		for _, c := range clients[startIdx:endIdx] {
			keyboard = append(keyboard, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(c.Name, cbPick+c.ID),
			))
		}
		return "", keyboard
	})
}

// renderBookings pages through every booking grouped by day.
func (b *Bot) renderBookings(params PaginationParams) {
	groups := view.GroupByDate(b.studio.Bookings(), b.studio.Clients())
	if len(groups) == 0 {
		b.show(params.ChatID, params.MessageID, msgNoBookings, nil)
		return
	}

	params.Title = "📋 <b>All bookings</b>"
	params.PagePrefix = cbBookingsPage
	params.BackCallback = cbMenu

	b.renderPaginatedList(params, len(groups), daysPerPage, func(startIdx, endIdx int) (string, [][]tgbotapi.InlineKeyboardButton) {
		var content strings.Builder
		var keyboard [][]tgbotapi.InlineKeyboardButton

		for _, g := range groups[startIdx:endIdx] {
			fmt.Fprintf(&content, "<b>%s</b>\n", esc(g.Heading))
			for _, r := range g.Rows {
				fmt.Fprintf(&content, "   %s: %s\n", esc(r.TimeSlot), esc(r.ClientName))
				keyboard = append(keyboard, tgbotapi.NewInlineKeyboardRow(
					tgbotapi.NewInlineKeyboardButtonData(
						fmt.Sprintf("✖ %s %s", g.Date, r.TimeSlot),
						cbCancel+r.BookingID,
					),
				))
			}
			content.WriteString("\n")
		}
		return content.String(), keyboard
	})
}

func clientBookingCount(bookings []models.Booking, clientID string) int {
	n := 0
	for _, bk := range bookings {
		if bk.ClientID == clientID {
			n++
		}
	}
	return n
}
