package telegram

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	availabilityDomain "github.com/reshetovitsme/campus-bot/internal/modules/availability/domain"
	availabilityService "github.com/reshetovitsme/campus-bot/internal/modules/availability/service"
	canteenDomain "github.com/reshetovitsme/campus-bot/internal/modules/canteen/domain"
	canteenService "github.com/reshetovitsme/campus-bot/internal/modules/canteen/service"
	feedService "github.com/reshetovitsme/campus-bot/internal/modules/feed/service"
	menuDomain "github.com/reshetovitsme/campus-bot/internal/modules/menu/domain"
	menuService "github.com/reshetovitsme/campus-bot/internal/modules/menu/service"
	"github.com/reshetovitsme/campus-bot/internal/shared/config"
	"github.com/reshetovitsme/campus-bot/internal/shared/errors"
	"github.com/samber/lo"
)

const (
	callbackNotifyYes = "notify:yes"
	callbackNotifyNo  = "notify:no"

	displayDateLayout = "02.01.2006"
)

// Handler handles Telegram bot interactions
type Handler struct {
	cfg            *config.Config
	canteenService *canteenService.Service
	lookup         *menuService.Lookup
	checker        *availabilityService.Checker
	monitor        *availabilityService.Monitor
}

// New creates a new Telegram handler
func New(cfg *config.Config, canteens *canteenService.Service, lookup *menuService.Lookup, checker *availabilityService.Checker, monitor *availabilityService.Monitor) *Handler {
	return &Handler{
		cfg:            cfg,
		canteenService: canteens,
		lookup:         lookup,
		checker:        checker,
		monitor:        monitor,
	}
}

// RegisterCommands registers bot commands
func (h *Handler) RegisterCommands(b *bot.Bot) {
	b.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, h.handleStart)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, h.handleHelp)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/mensa", bot.MatchTypePrefix, h.handleCanteen)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/mensen", bot.MatchTypeExact, h.handleListCanteens)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/check_opal", bot.MatchTypeExact, h.handleCheckAvailability)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/cancel", bot.MatchTypeExact, h.handleCancel)
	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, "notify:", bot.MatchTypePrefix, h.handleNotifyCallback)
}

// HandleUpdate answers everything no command handler matched.
func (h *Handler) HandleUpdate(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || !strings.HasPrefix(update.Message.Text, "/") {
		return
	}

	slog.Info("Unknown command", "chat_id", update.Message.Chat.ID, "text", update.Message.Text)
	h.reply(ctx, b, update.Message.Chat.ID, "Sorry, das hab ich nicht verstanden.")
}

func (h *Handler) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.reply(ctx, b, update.Message.Chat.ID, "👋 Hallo! Ich kenne die Speisepläne der Dresdner Mensen und weiß, ob Opal gerade erreichbar ist.\n\n"+helpText)
}

func (h *Handler) handleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.reply(ctx, b, update.Message.Chat.ID, helpText)
}

const helpText = `/check_opal - Prüfe, ob Opal zur Zeit online ist 📚
/mensa <name> [heute|morgen|JJJJ-MM-TT] - Schicke die Speisen einer Mensa 🍴
/mensen - Liste aller Mensen
/cancel - Ausstehende Opal-Benachrichtigungen abbrechen

Beispiel:
/mensa alte-mensa morgen`

func (h *Handler) handleCanteen(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID
	canteenQuery, dayToken := splitCanteenArgs(commandArgs(update.Message.Text))

	slog.Info("Executing command mensa", "chat_id", chatID, "canteen", canteenQuery, "day", dayToken)

	res, err := h.lookup.Resolve(ctx, canteenQuery, dayToken)
	if err != nil {
		slog.Warn("Menu lookup failed", "error", err, "canteen", canteenQuery, "day", dayToken)
		text := lookupErrorText(err)
		if stderrors.Is(err, errors.ErrCanteenNotFound) {
			if canteens, listErr := h.canteenService.ListCanteens(ctx, nil); listErr == nil {
				text += "\nFolgende Mensen sind verfügbar:\n\n" + formatCanteenList(canteens)
			}
		}
		h.reply(ctx, b, chatID, text)
		return
	}

	for _, text := range formatResolution(res) {
		h.reply(ctx, b, chatID, text)
	}
}

func (h *Handler) handleListCanteens(ctx context.Context, b *bot.Bot, update *models.Update) {
	canteens, err := h.canteenService.ListCanteens(ctx, nil)
	if err != nil {
		slog.Error("Failed to list canteens", "error", err)
		h.reply(ctx, b, update.Message.Chat.ID, lookupErrorText(err))
		return
	}

	h.reply(ctx, b, update.Message.Chat.ID, "🍽 Verfügbare Mensen:\n\n"+formatCanteenList(canteens))
}

func (h *Handler) handleCheckAvailability(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID

	online, err := h.checker.CheckOnce(ctx, h.cfg.AvailabilityURL)
	if err != nil {
		slog.Warn("Availability check failed", "error", err, "target", h.cfg.AvailabilityURL)
	}

	if online {
		h.reply(ctx, b, chatID, "Opal ist zur Zeit online.")
		return
	}

	slog.Info("Opal is offline", "chat_id", chatID)
	h.reply(ctx, b, chatID, "Opal ist zur Zeit mal wieder offline.")

	_, err = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        notifyQuestion,
		ReplyMarkup: notifyKeyboard(),
	})
	if err != nil {
		slog.Error("Failed to send message", "error", err, "chat_id", chatID)
	}
}

const notifyQuestion = "Soll eine Nachricht geschickt werden, sobald Opal wieder online ist?"

func notifyKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "Nein", CallbackData: callbackNotifyNo},
				{Text: "Ja", CallbackData: callbackNotifyYes},
			},
		},
	}
}

func (h *Handler) handleNotifyCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	query := update.CallbackQuery
	if _, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: query.ID}); err != nil {
		slog.Warn("Failed to answer callback query", "error", err)
	}

	chatID, messageID, ok := callbackOrigin(query)
	if !ok {
		return
	}

	text := "Ich schicke keine Nachricht, wenn Opal wieder online ist."
	if query.Data == callbackNotifyYes {
		handle, err := h.monitor.Schedule(chatID, h.cfg.AvailabilityURL, h.cfg.AvailabilityCheckInterval(), h.notifyRecovered(b))
		if err != nil {
			slog.Error("Failed to schedule availability check", "error", err, "chat_id", chatID)
			text = "Die Benachrichtigung konnte leider nicht eingerichtet werden."
		} else {
			slog.Info("Scheduled availability check", "chat_id", chatID, "handle", handle)
			text = "Ich werde eine Nachricht schicken, sobald Opal wieder online ist."
		}
	}

	_, err := b.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
	})
	if err != nil {
		slog.Error("Failed to edit message", "error", err, "chat_id", chatID)
	}
}

func (h *Handler) notifyRecovered(b *bot.Bot) availabilityService.RecoveredFunc {
	return func(ctx context.Context, sub availabilityDomain.Subscription) {
		slog.Info("Opal is online again", "chat_id", sub.ChatID, "subscription", sub.ID)
		h.reply(ctx, b, sub.ChatID, "Opal ist wieder online 🎉")
	}
}

func (h *Handler) handleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID

	cancelled := h.monitor.CancelChat(chatID)
	if cancelled == 0 {
		h.reply(ctx, b, chatID, "Es gibt keine ausstehenden Benachrichtigungen.")
		return
	}
	h.reply(ctx, b, chatID, fmt.Sprintf("✅ %d Benachrichtigung(en) abgebrochen.", cancelled))
}

func (h *Handler) reply(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		slog.Error("Failed to send message", "error", err, "chat_id", chatID)
	}
}

func callbackOrigin(query *models.CallbackQuery) (int64, int, bool) {
	switch {
	case query.Message.Message != nil:
		return query.Message.Message.Chat.ID, query.Message.Message.ID, true
	case query.Message.InaccessibleMessage != nil:
		return query.Message.InaccessibleMessage.Chat.ID, query.Message.InaccessibleMessage.MessageID, true
	default:
		return 0, 0, false
	}
}

// commandArgs drops the command itself, including a trailing @botname.
func commandArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	return fields[1:]
}

// splitCanteenArgs treats a trailing day token as the day and everything
// before it as the canteen name, so names may contain spaces.
func splitCanteenArgs(args []string) (string, string) {
	if len(args) == 0 {
		return "", ""
	}

	last := args[len(args)-1]
	if len(args) > 1 && (isDayToken(last) || looksLikeDate(last)) {
		return strings.Join(args[:len(args)-1], " "), last
	}
	return strings.Join(args, " "), ""
}

func isDayToken(s string) bool {
	return lo.Contains([]string{"heute", "today", "morgen", "tomorrow"}, strings.ToLower(s))
}

// looksLikeDate keeps malformed dates such as 2024-13-01 out of the canteen
// name so the user gets an invalid date answer instead of an unknown canteen.
func looksLikeDate(s string) bool {
	return len(s) == len(menuDomain.DateLayout) && strings.Count(s, "-") == 2 && strings.IndexFunc(s, func(r rune) bool {
		return r != '-' && (r < '0' || r > '9')
	}) == -1
}

func formatResolution(res *menuDomain.Resolution) []string {
	var messages []string
	if res.DateInPast {
		messages = append(messages, "Das Datum ist in der Vergangenheit.")
	}

	if res.State == menuDomain.ResolutionStateRedirectedToNextOpenDay {
		return append(messages, fmt.Sprintf("Die %s ist leider geschlossen. Sie öffnet wieder am %s",
			res.Canteen.Name, res.NextOpen.Date.Format(displayDateLayout)))
	}

	if len(res.Meals) == 0 {
		return append(messages, fmt.Sprintf("Am %s gibt es in der %s keine Speisen.",
			res.Date.Format(displayDateLayout), res.Canteen.Name))
	}

	messages = append(messages, fmt.Sprintf("Am %s hat die %s:", res.Date.Format(displayDateLayout), res.Canteen.Name))
	for _, meal := range res.Meals {
		messages = append(messages, formatMeal(meal))
	}
	return messages
}

func formatMeal(meal menuDomain.Meal) string {
	text := fmt.Sprintf("%s (%s)", meal.Name, feedService.FormatPrices(meal))
	if meal.URL != "" {
		text += "\n" + meal.URL
	}
	return text
}

func formatCanteenList(canteens []canteenDomain.Canteen) string {
	return strings.Join(lo.Map(canteens, func(c canteenDomain.Canteen, _ int) string {
		return strings.ToLower(strings.ReplaceAll(c.Name, " ", "-"))
	}), "\n")
}

func lookupErrorText(err error) string {
	switch {
	case stderrors.Is(err, errors.ErrInvalidDate):
		return "Das Datum hat ein ungültiges Format."
	case stderrors.Is(err, errors.ErrCanteenNotFound):
		return "Mensa konnte nicht gefunden werden."
	case stderrors.Is(err, errors.ErrNoOpenDayFound):
		return "Die Mensa hat in nächster Zeit leider nicht geöffnet."
	case stderrors.Is(err, errors.ErrNotFound):
		return "Für diesen Tag gibt es keinen Speiseplan."
	case stderrors.Is(err, errors.ErrUpstreamUnavailable), stderrors.Is(err, errors.ErrUpstreamMalformed):
		return "Der Speiseplan ist gerade nicht erreichbar. Versuch es später noch einmal."
	default:
		return "Da ist leider etwas schiefgelaufen."
	}
}
