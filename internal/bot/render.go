package bot

import (
	"fmt"
	"strconv"
	"strings"

	"studiobook/internal/models"
	"studiobook/internal/view"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Callback data prefixes. Telegram caps callback data at 64 bytes, so
// payloads carry ids and indexes only.
const (
	cbMenu           = "menu"
	cbAbort          = "abort"
	cbDateInput      = "date_input"
	cbSchedule       = "sched:"
	cbBook           = "book:"
	cbPick           = "pick:"
	cbPickPage       = "pick_page:"
	cbCancel         = "cancel:"
	cbCancelOK       = "cancel_ok:"
	cbDeleteClient   = "delc:"
	cbDeleteClientOK = "delc_ok:"
	cbClientsPage    = "clients_page:"
	cbBookingsPage   = "bookings_page:"
)

const (
	msgLoading     = "⏳ Loading data…"
	msgNotOperator = "This bot is for studio operators only."
	msgRateLimited = "⚠️ Too many messages. Please wait a moment."
	msgUnknown     = "I did not understand that. Send /help for the list of commands."
	msgAborted     = "Cancelled."
	msgAskName     = "Send the new client's <b>name</b>. /cancel to stop."
	msgAskContact  = "Now send a <b>contact</b> (phone or email) for %s."
	msgAskDate     = "Send a date as YYYY-MM-DD."
	msgNoClients   = "No clients yet. Add one with /addclient first."
	msgNoBookings  = "No bookings yet."
	msgSlotGone    = "That slot has just been booked. Pick another one."
	msgNoPending   = "No slot selected. Open /schedule and choose a free slot."
	msgStaleBook   = "That booking no longer exists."
	msgStaleClient = "That client no longer exists."
)

func esc(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeHTML, s)
}

func helpText() string {
	var sb strings.Builder
	sb.WriteString("🎸 <b>Rehearsal studio</b>\n\n")
	sb.WriteString("/schedule [YYYY-MM-DD] - day schedule, book or cancel slots\n")
	sb.WriteString("/bookings - all bookings grouped by day\n")
	sb.WriteString("/clients - client list\n")
	sb.WriteString("/addclient - add a client\n")
	sb.WriteString("/export - download bookings as a spreadsheet\n")
	sb.WriteString("/reload - reload data from storage\n")
	sb.WriteString("/cancel - abort the current action\n")
	return sb.String()
}

func menuKeyboard(today string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📅 Today", cbSchedule+today),
			tgbotapi.NewInlineKeyboardButtonData("📋 Bookings", cbBookingsPage+"0"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👥 Clients", cbClientsPage+"0"),
		),
	)
}

// renderSchedule lists every slot of the day. Free slots get a book button,
// booked ones a cancel button.
func renderSchedule(s view.Schedule, today string) (string, tgbotapi.InlineKeyboardMarkup) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 <b>%s</b>\n", esc(s.Heading))
	fmt.Fprintf(&sb, "Free slots: %d of %d\n\n", s.Free(), len(s.Rows))

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(s.Rows)+2)
	for _, r := range s.Rows {
		if r.Booked {
			fmt.Fprintf(&sb, "🔴 %s: %s\n", esc(r.Label), esc(r.ClientName))
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✖ "+r.Label+" ("+r.ClientName+")", cbCancel+r.BookingID),
			))
			continue
		}
		fmt.Fprintf(&sb, "🟢 %s: free\n", esc(r.Label))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ "+r.Label, cbBook+s.Date+":"+strconv.Itoa(r.Index)),
		))
	}

	prev, _ := view.ShiftDate(s.Date, -1)
	next, _ := view.ShiftDate(s.Date, 1)
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️", cbSchedule+prev),
			tgbotapi.NewInlineKeyboardButtonData("Today", cbSchedule+today),
			tgbotapi.NewInlineKeyboardButtonData("➡️", cbSchedule+next),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗓 Pick date", cbDateInput),
		),
	)
	return sb.String(), tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func renderCancelConfirm(b models.Booking, clientName string) (string, tgbotapi.InlineKeyboardMarkup) {
	text := fmt.Sprintf("Cancel the booking of <b>%s</b> on %s, %s?",
		esc(clientName), esc(view.FormatDayHeading(b.Date)), esc(b.TimeSlot))
	return text, tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Yes, cancel it", cbCancelOK+b.ID),
			tgbotapi.NewInlineKeyboardButtonData("Keep", cbAbort),
		),
	)
}

func renderDeleteConfirm(c models.Client, bookings int) (string, tgbotapi.InlineKeyboardMarkup) {
	text := fmt.Sprintf("Delete client <b>%s</b>?", esc(c.Name))
	if bookings > 0 {
		text += fmt.Sprintf("\nThis also removes %d booking(s).", bookings)
	}
	return text, tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Yes, delete", cbDeleteClientOK+c.ID),
			tgbotapi.NewInlineKeyboardButtonData("Keep", cbAbort),
		),
	)
}

// parseBookCallback splits "<date>:<slot index>".
func parseBookCallback(payload string) (date string, index int, err error) {
	date, idx, found := strings.Cut(payload, ":")
	if !found {
		return "", 0, fmt.Errorf("malformed book callback %q", payload)
	}
	if date, err = view.ParseDate(date); err != nil {
		return "", 0, err
	}
	if index, err = strconv.Atoi(idx); err != nil {
		return "", 0, fmt.Errorf("malformed slot index %q: %w", idx, err)
	}
	return date, index, nil
}
