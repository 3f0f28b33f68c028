package tgbot

import (
	"fmt"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/lonesomestranger/3x-ui-manager/service/profile"
)

const profilesPerPage = 10

// profilesPage renders one page of the profile listing: the message text plus
// an inline keyboard with a delete button per profile and prev/next
// navigation. Pagination is purely presentational, the full set comes from
// the orchestrator.
func profilesPage(profiles []profile.Profile, page int) (string, *telego.InlineKeyboardMarkup) {
	if len(profiles) == 0 {
		return "📭 No profiles yet.", nil
	}

	totalPages := (len(profiles) + profilesPerPage - 1) / profilesPerPage
	if page < 0 {
		page = 0
	}
	if page > totalPages-1 {
		page = totalPages - 1
	}
	start := page * profilesPerPage
	end := start + profilesPerPage
	if end > len(profiles) {
		end = len(profiles)
	}

	text := fmt.Sprintf("📄 <b>Profiles (page %d/%d):</b>\n\n", page+1, totalPages)
	var rows [][]telego.InlineKeyboardButton
	for i, p := range profiles[start:end] {
		text += fmt.Sprintf("%d. <code>%s</code> (-> %s)\n", start+i+1, p.Remark, p.OutboundTag)
		rows = append(rows, tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("🗑 Delete "+p.Remark).
				WithCallbackData(fmt.Sprintf("confirm_delete %d %s", page, p.ID)),
		))
	}

	var nav []telego.InlineKeyboardButton
	if page > 0 {
		nav = append(nav, tu.InlineKeyboardButton("⬅️ Back").
			WithCallbackData(fmt.Sprintf("profiles %d", page-1)))
	}
	if page < totalPages-1 {
		nav = append(nav, tu.InlineKeyboardButton("Next ➡️").
			WithCallbackData(fmt.Sprintf("profiles %d", page+1)))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}

	return text, tu.InlineKeyboard(rows...)
}

// confirmDeleteKeyboard asks for explicit confirmation before a profile is
// removed; cancel returns to the listing page the button came from.
func confirmDeleteKeyboard(page int, id string) *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("‼️ Yes, delete").
				WithCallbackData("execute_delete "+id),
			tu.InlineKeyboardButton("Cancel").
				WithCallbackData(fmt.Sprintf("profiles %d", page)),
		),
	)
}
