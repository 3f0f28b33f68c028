// Package tgbot is the chat surface of the profile manager. It parses
// operator commands, renders orchestrator results and keeps no state of its
// own beyond a per-chat "waiting for proxy details" flag.
package tgbot

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"sync"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/lonesomestranger/3x-ui-manager/api"
	"github.com/lonesomestranger/3x-ui-manager/logger"
	"github.com/lonesomestranger/3x-ui-manager/service/profile"
)

// Config holds the bot settings.
type Config struct {
	Token    string  `mapstructure:"Token"`
	AdminIDs []int64 `mapstructure:"AdminIds"`
}

// Tgbot runs the Telegram long-polling loop and dispatches commands to the
// profile orchestrator.
type Tgbot struct {
	config   *Config
	profiles *profile.Service

	bot     *telego.Bot
	handler *th.BotHandler
	running bool

	mu            sync.Mutex
	awaitingProxy map[int64]bool
}

// New creates the bot service.
func New(config *Config, profiles *profile.Service) *Tgbot {
	return &Tgbot{
		config:        config,
		profiles:      profiles,
		awaitingProxy: make(map[int64]bool),
	}
}

// Start connects to Telegram and begins receiving updates.
func (t *Tgbot) Start() error {
	bot, err := telego.NewBot(t.config.Token)
	if err != nil {
		return fmt.Errorf("create telegram bot: %w", err)
	}
	t.bot = bot

	logger.Info("starting Telegram receiver")
	go t.receive()
	t.running = true
	return nil
}

// Close stops the update loop.
func (t *Tgbot) Close() error {
	if t.handler != nil {
		t.handler.Stop()
	}
	if t.bot != nil {
		t.bot.StopLongPolling()
	}
	t.running = false
	logger.Info("stopped Telegram receiver")
	return nil
}

func (t *Tgbot) receive() {
	params := telego.GetUpdatesParams{Timeout: 10}

	updates, err := t.bot.UpdatesViaLongPolling(&params)
	if err != nil {
		logger.Error("telegram long polling failed:", err)
		return
	}
	t.handler, err = th.NewBotHandler(t.bot, updates)
	if err != nil {
		logger.Error("telegram handler setup failed:", err)
		return
	}

	t.handler.HandleMessage(func(_ *telego.Bot, message telego.Message) {
		t.answerCommand(&message)
	}, th.AnyCommand())

	t.handler.HandleCallbackQuery(func(_ *telego.Bot, query telego.CallbackQuery) {
		t.answerCallback(&query)
	}, th.AnyCallbackQueryWithMessage())

	t.handler.HandleMessage(func(_ *telego.Bot, message telego.Message) {
		t.answerText(&message)
	}, th.AnyMessage())

	t.handler.Start()
}

func (t *Tgbot) isAdmin(id int64) bool {
	for _, adminID := range t.config.AdminIDs {
		if adminID == id {
			return true
		}
	}
	return false
}

func (t *Tgbot) answerCommand(message *telego.Message) {
	if message.From == nil {
		return
	}
	chatID := message.Chat.ID
	if !t.isAdmin(message.From.ID) {
		t.sendMessage(chatID, "⛔ You are not allowed to use this bot.")
		return
	}

	command, args := tu.ParseCommand(message.Text)
	switch command {
	case "start":
		t.clearAwaiting(chatID)
		t.sendMessage(chatID,
			"👋 Hi! I manage proxy profiles on the panel.\n\n"+
				"▪️ /new <code>host:port:user:pass Name [limit=GB] [days=N]</code> — create a proxied profile\n"+
				"▪️ /vless <code>Name [limit=GB] [days=N]</code> — create a plain VLESS profile\n"+
				"▪️ /list — show all profiles\n"+
				"▪️ /cancel — cancel the current action")
	case "new":
		t.clearAwaiting(chatID)
		if len(args) == 0 {
			t.sendMessage(chatID,
				"Send the new proxy details and a name.\n\n"+
					"<b>Format:</b> <code>host:port:user:pass Name [limit=GB] [days=N]</code>\n\n"+
					"<b>Example:</b>\n<code>proxy.example.com:1234:john:secret123 Proxy1 limit=50 days=30</code>\n\n"+
					"Send /cancel to abort.")
			t.setAwaiting(chatID)
			return
		}
		t.handleNew(chatID, args)
	case "vless":
		t.clearAwaiting(chatID)
		if len(args) == 0 {
			t.sendMessage(chatID,
				"Send a name for the plain VLESS profile.\n\n"+
					"<b>Format:</b> <code>/vless Name [limit=GB] [days=N]</code>\n\n"+
					"<b>Example:</b>\n<code>/vless My phone limit=10</code>")
			return
		}
		created := parseCreateArgs(args)
		if created.Remark == "" {
			t.sendMessage(chatID, "❌ A profile name is required.")
			return
		}
		t.createDirect(chatID, created)
	case "list":
		t.clearAwaiting(chatID)
		t.sendProfiles(chatID)
	case "cancel":
		if t.clearAwaiting(chatID) {
			t.sendMessage(chatID, "Action cancelled.")
		} else {
			t.sendMessage(chatID, "Nothing to cancel.")
		}
	default:
		t.sendMessage(chatID, "❗ Unknown command")
	}
}

// answerText consumes a plain message when the chat previously asked for
// proxy details via a bare /new.
func (t *Tgbot) answerText(message *telego.Message) {
	if message.From == nil || message.Text == "" || strings.HasPrefix(message.Text, "/") {
		return
	}
	chatID := message.Chat.ID
	if !t.isAdmin(message.From.ID) {
		return
	}
	if !t.clearAwaiting(chatID) {
		return
	}
	t.handleNew(chatID, strings.Fields(message.Text))
}

func (t *Tgbot) handleNew(chatID int64, tokens []string) {
	if len(tokens) < 2 {
		t.sendMessage(chatID, "❌ <b>Bad format:</b> both proxy details and a name are required.\n\n"+
			"Use: <code>/new host:port:user:pass Name [limit=GB] [days=N]</code>")
		return
	}
	endpoint, err := parseProxyEndpoint(tokens[0])
	if err != nil {
		t.sendMessage(chatID, "❌ <b>Bad format:</b> "+html.EscapeString(err.Error())+"\n\n"+
			"Use: <code>/new host:port:user:pass Name [limit=GB] [days=N]</code>")
		return
	}
	created := parseCreateArgs(tokens[1:])
	if created.Remark == "" {
		t.sendMessage(chatID, "❌ A profile name is required.")
		return
	}
	t.createProxied(chatID, endpoint, created)
}

func (t *Tgbot) createProxied(chatID int64, endpoint profile.ProxyEndpoint, args createArgs) {
	t.runCreation(chatID, args, func(progress profile.ProgressFunc) (string, error) {
		return t.profiles.Create(args.Remark, endpoint, args.LimitGB, args.Days, progress)
	})
}

func (t *Tgbot) createDirect(chatID int64, args createArgs) {
	t.runCreation(chatID, args, func(progress profile.ProgressFunc) (string, error) {
		return t.profiles.CreateDirect(args.Remark, args.LimitGB, args.Days, progress)
	})
}

// runCreation drives a creation sequence, editing one status message in place
// as the orchestrator reports progress.
func (t *Tgbot) runCreation(chatID int64, args createArgs, create func(profile.ProgressFunc) (string, error)) {
	status := t.sendMessage(chatID, "Starting work... ⏳")

	progress := func(step, total int, description string) {
		if status != nil {
			t.editMessage(chatID, status.MessageID, fmt.Sprintf("Step %d/%d: %s...", step, total, description), nil)
		}
	}

	uri, err := create(progress)
	if err != nil {
		t.reportCreationError(chatID, status, args.Remark, err)
		return
	}

	if status != nil {
		t.deleteMessage(chatID, status.MessageID)
	}
	t.sendMessage(chatID, fmt.Sprintf(
		"✅ <b>Done! Profile '%s' created.</b>\n\nLimits: %s GB, %s days.\n\n"+
			"Connection link (tap to copy):\n<code>%s</code>",
		html.EscapeString(args.Remark), unlimited(args.LimitGB), unlimited(args.Days), html.EscapeString(uri)))
	t.sendQR(chatID, uri)
}

func (t *Tgbot) reportCreationError(chatID int64, status *telego.Message, remark string, err error) {
	var text string
	if errors.Is(err, api.ErrProfileExists) {
		text = fmt.Sprintf("❌ <b>A profile named '%s' already exists.</b>", html.EscapeString(remark))
	} else {
		logger.Errorf("profile creation failed: %v", err)
		text = "❌ <b>Something went wrong.</b>\n\n<b>Error:</b> " + html.EscapeString(err.Error())
	}
	if status != nil {
		t.editMessage(chatID, status.MessageID, text, nil)
	} else {
		t.sendMessage(chatID, text)
	}
}

// sendQR sends the connection URI as a QR code image.
func (t *Tgbot) sendQR(chatID int64, uri string) {
	png, err := qrcode.Encode(uri, qrcode.Medium, 256)
	if err != nil {
		logger.Warning("QR code generation failed:", err)
		return
	}
	params := &telego.SendPhotoParams{
		ChatID: tu.ID(chatID),
		Photo:  tu.File(tu.NameReader(bytes.NewReader(png), "profile-qr.png")),
	}
	if _, err := t.bot.SendPhoto(params); err != nil {
		logger.Warning("error sending QR code:", err)
	}
}

func (t *Tgbot) sendProfiles(chatID int64) {
	profiles, err := t.profiles.List()
	if err != nil {
		logger.Errorf("profile listing failed: %v", err)
		t.sendMessage(chatID, "❌ Could not fetch profiles.\nError: "+html.EscapeString(err.Error()))
		return
	}
	text, markup := profilesPage(profiles, 0)
	t.sendMessageMarkup(chatID, text, markup)
}

func (t *Tgbot) answerCallback(query *telego.CallbackQuery) {
	chatID := query.Message.Chat.ID
	if !t.isAdmin(query.From.ID) {
		t.answerCallbackQuery(query.ID, "Not allowed", true)
		return
	}

	fields := strings.Split(query.Data, " ")
	switch fields[0] {
	case "profiles":
		if len(fields) != 2 {
			return
		}
		page, _ := strconv.Atoi(fields[1])
		t.renderProfilesPage(query, page)
	case "confirm_delete":
		if len(fields) != 3 {
			return
		}
		page, _ := strconv.Atoi(fields[1])
		id := fields[2]
		t.editMessage(chatID, query.Message.MessageID,
			fmt.Sprintf("Delete profile <b>%s</b>?\n\nThis cannot be undone.", html.EscapeString(profile.DisplayRemark(id))),
			confirmDeleteKeyboard(page, id))
		t.answerCallbackQuery(query.ID, "", false)
	case "execute_delete":
		if len(fields) != 2 {
			return
		}
		t.executeDelete(query, fields[1])
	default:
		t.answerCallbackQuery(query.ID, "", false)
	}
}

func (t *Tgbot) renderProfilesPage(query *telego.CallbackQuery, page int) {
	chatID := query.Message.Chat.ID
	profiles, err := t.profiles.List()
	if err != nil {
		logger.Errorf("profile listing failed: %v", err)
		t.answerCallbackQuery(query.ID, "Could not fetch profiles", true)
		return
	}
	text, markup := profilesPage(profiles, page)
	t.editMessage(chatID, query.Message.MessageID, text, markup)
	t.answerCallbackQuery(query.ID, "", false)
}

func (t *Tgbot) executeDelete(query *telego.CallbackQuery, id string) {
	chatID := query.Message.Chat.ID
	t.editMessage(chatID, query.Message.MessageID, "Deleting profile... ⏳", nil)

	if err := t.profiles.Delete(id); err != nil {
		logger.Errorf("profile deletion failed: %v", err)
		t.editMessage(chatID, query.Message.MessageID,
			"❌ Could not delete the profile.\nError: "+html.EscapeString(err.Error()), nil)
		t.answerCallbackQuery(query.ID, "Deletion failed", true)
		return
	}

	t.answerCallbackQuery(query.ID, fmt.Sprintf("Profile %s deleted!", profile.DisplayRemark(id)), true)

	profiles, err := t.profiles.List()
	if err != nil {
		logger.Errorf("profile listing failed: %v", err)
		return
	}
	text, markup := profilesPage(profiles, 0)
	t.editMessage(chatID, query.Message.MessageID, text, markup)
}

func (t *Tgbot) setAwaiting(chatID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.awaitingProxy[chatID] = true
}

func (t *Tgbot) clearAwaiting(chatID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	was := t.awaitingProxy[chatID]
	delete(t.awaitingProxy, chatID)
	return was
}

func (t *Tgbot) sendMessage(chatID int64, text string) *telego.Message {
	return t.sendMessageMarkup(chatID, text, nil)
}

func (t *Tgbot) sendMessageMarkup(chatID int64, text string, markup *telego.InlineKeyboardMarkup) *telego.Message {
	params := &telego.SendMessageParams{
		ChatID:    tu.ID(chatID),
		Text:      text,
		ParseMode: "HTML",
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	message, err := t.bot.SendMessage(params)
	if err != nil {
		logger.Warning("error sending telegram message:", err)
		return nil
	}
	return message
}

func (t *Tgbot) editMessage(chatID int64, messageID int, text string, markup *telego.InlineKeyboardMarkup) {
	params := &telego.EditMessageTextParams{
		ChatID:    tu.ID(chatID),
		MessageID: messageID,
		Text:      text,
		ParseMode: "HTML",
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	if _, err := t.bot.EditMessageText(params); err != nil {
		logger.Warning("error editing telegram message:", err)
	}
}

func (t *Tgbot) deleteMessage(chatID int64, messageID int) {
	params := &telego.DeleteMessageParams{
		ChatID:    tu.ID(chatID),
		MessageID: messageID,
	}
	if err := t.bot.DeleteMessage(params); err != nil {
		logger.Warning("error deleting telegram message:", err)
	}
}

func (t *Tgbot) answerCallbackQuery(queryID, text string, alert bool) {
	params := &telego.AnswerCallbackQueryParams{
		CallbackQueryID: queryID,
		ShowAlert:       alert,
	}
	if text != "" {
		params.Text = text
	}
	if err := t.bot.AnswerCallbackQuery(params); err != nil {
		logger.Warning("error answering callback query:", err)
	}
}

func unlimited(n int) string {
	if n == 0 {
		return "∞"
	}
	return strconv.Itoa(n)
}
