package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
	"github.com/user/anime-notify-bot/internal/model"
	"github.com/user/anime-notify-bot/internal/store"
	"github.com/user/anime-notify-bot/internal/subscription"
)

// ImageFetcher downloads search-result images, nil when the configured
// search variant has none.
type ImageFetcher interface {
	FetchImage(ctx context.Context, imageURL string) ([]byte, error)
}

// Handler handles Telegram bot commands
type Handler struct {
	manager   *subscription.Manager
	store     store.Store
	telegram  *Client
	images    ImageFetcher
	startTime time.Time
}

// NewHandler creates a new command handler
func NewHandler(manager *subscription.Manager, st store.Store, telegram *Client, images ImageFetcher) *Handler {
	return &Handler{
		manager:   manager,
		store:     st,
		telegram:  telegram,
		images:    images,
		startTime: time.Now(),
	}
}

// HandleUpdate processes an incoming Telegram update
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil || !update.Message.IsCommand() {
		return
	}
	h.handleCommand(ctx, update.Message)
}

// handleCommand routes commands to their respective handlers
func (h *Handler) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	command := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())

	var userID int64
	if msg.From != nil {
		userID = msg.From.ID
	}

	log.Info().
		Int64("chatID", chatID).
		Int64("userID", userID).
		Str("command", command).
		Str("args", args).
		Msg("Received command")

	isGroup := msg.Chat.IsGroup() || msg.Chat.IsSuperGroup()

	switch command {
	case "start", "help":
		h.handleStart(chatID)
	case "anime", "search_anime":
		h.handleSearch(ctx, chatID, args)
	case "subscribe":
		if !isGroup {
			h.sendError(chatID, "Subscriptions work in group chats only.")
			return
		}
		h.handleSubscribe(ctx, chatID, userID, args)
	case "unsubscribe":
		if !isGroup {
			h.sendError(chatID, "Subscriptions work in group chats only.")
			return
		}
		h.handleUnsubscribe(ctx, chatID, userID, args)
	case "subscriptions":
		if !isGroup {
			h.sendError(chatID, "Subscriptions work in group chats only.")
			return
		}
		h.handleList(ctx, chatID, userID)
	case "status":
		h.handleStatus(ctx, chatID)
	default:
		h.sendError(chatID, "Unknown command. Use /help to see available commands.")
	}
}

// handleStart handles /start and /help commands
func (h *Handler) handleStart(chatID int64) {
	helpText := `🤖 *Anime Notify Bot*

/anime title or id \- Search the seasonal catalog
/subscribe title or id \- Get a message when episodes air \(groups only\)
/unsubscribe title or id \- Stop notifications \(groups only\)
/subscriptions \- List your subscriptions \(groups only\)
/status \- Show bot statistics

_Search by title first, then use the numeric id to subscribe\._`

	if err := h.telegram.SendMarkdown(chatID, helpText); err != nil {
		log.Error().Err(err).Int64("chatID", chatID).Msg("Failed to send help message")
	}
}

// handleSearch handles /anime and /search_anime
func (h *Handler) handleSearch(ctx context.Context, chatID int64, args string) {
	result, err := h.manager.Search(ctx, args)
	if err != nil {
		h.reportSearchError(chatID, "/anime", err)
		return
	}

	if result.Detail != nil {
		h.sendDetail(chatID, result.Detail, "")
		return
	}
	h.sendCandidates(ctx, chatID, result.Candidates, "/anime")
}

// handleSubscribe handles /subscribe. A free-text argument yields candidate
// ids to pick from; a numeric argument creates the subscription.
func (h *Handler) handleSubscribe(ctx context.Context, chatID, userID int64, args string) {
	if args == "" {
		h.sendError(chatID, "Usage: /subscribe [anime title or id]")
		return
	}

	animeID, err := strconv.Atoi(args)
	if err != nil {
		result, err := h.manager.Search(ctx, args)
		if err != nil {
			h.reportSearchError(chatID, "/subscribe", err)
			return
		}
		h.sendCandidates(ctx, chatID, result.Candidates, "/subscribe")
		return
	}

	detail, err := h.manager.Subscribe(ctx, userID, animeID, chatID)
	switch {
	case errors.Is(err, subscription.ErrNotFound):
		h.sendError(chatID, "No anime with that id. Check the id and try again.")
		return
	case errors.Is(err, subscription.ErrUnschedulable):
		h.sendError(chatID, "That title has no known broadcast time, so it cannot be scheduled.")
		return
	case err != nil:
		log.Error().Err(err).Int64("chatID", chatID).Int("animeID", animeID).Msg("Subscribe failed")
		h.sendError(chatID, "Failed to subscribe. Please try again.")
		return
	}

	h.sendDetail(chatID, detail, "✅ Subscribed\\!\n\n")
}

// handleUnsubscribe handles /unsubscribe
func (h *Handler) handleUnsubscribe(ctx context.Context, chatID, userID int64, args string) {
	if args == "" {
		h.sendError(chatID, "Usage: /unsubscribe [anime title or id]")
		return
	}

	animeID, err := strconv.Atoi(args)
	if err != nil {
		result, err := h.manager.Search(ctx, args)
		if err != nil {
			h.reportSearchError(chatID, "/unsubscribe", err)
			return
		}
		h.sendCandidates(ctx, chatID, result.Candidates, "/unsubscribe")
		return
	}

	err = h.manager.Unsubscribe(ctx, userID, animeID)
	switch {
	case errors.Is(err, subscription.ErrNotFound):
		h.sendError(chatID, "You have no subscription for that anime.")
	case err != nil:
		log.Error().Err(err).Int64("chatID", chatID).Int("animeID", animeID).Msg("Unsubscribe failed")
		h.sendError(chatID, "Failed to unsubscribe. Please try again.")
	default:
		if err := h.telegram.SendMessage(chatID, "✅ Unsubscribed."); err != nil {
			log.Error().Err(err).Int64("chatID", chatID).Msg("Failed to send unsubscribe confirmation")
		}
	}
}

// handleList handles /subscriptions
func (h *Handler) handleList(ctx context.Context, chatID, userID int64) {
	rows, err := h.manager.ListSubscriptions(ctx, userID)
	if err != nil {
		log.Error().Err(err).Int64("userID", userID).Msg("Failed to list subscriptions")
		h.sendError(chatID, "Failed to load subscriptions. Please try again.")
		return
	}

	if len(rows) == 0 {
		if err := h.telegram.SendMessage(chatID, "📭 You have no subscriptions.\nUse /subscribe to start receiving airing notifications."); err != nil {
			log.Error().Err(err).Int64("chatID", chatID).Msg("Failed to send empty list message")
		}
		return
	}

	var lines []string
	lines = append(lines, "📋 *Your Subscriptions:*\n")
	for i, row := range rows {
		if row.Detail == nil {
			lines = append(lines, fmt.Sprintf("%d\\. id %d \\(no catalog data\\)", i+1, row.Subscription.AnimeID))
			continue
		}
		line := fmt.Sprintf("%d\\. *%s* \\(id %d\\)",
			i+1, EscapeMarkdown(DisplayTitle(row.Detail)), row.Detail.ID)
		if b := row.Detail.Broadcast(); b.Schedulable() {
			line += fmt.Sprintf("\n   🕒 %s %s", EscapeMarkdown(titleCase(b.DayOfWeek)), EscapeMarkdown(b.StartTime))
		}
		lines = append(lines, line)
	}

	if err := h.telegram.SendMarkdown(chatID, strings.Join(lines, "\n")); err != nil {
		log.Error().Err(err).Int64("chatID", chatID).Msg("Failed to send subscription list")
	}
}

// handleStatus handles /status
func (h *Handler) handleStatus(ctx context.Context, chatID int64) {
	summaries, err := h.store.CountSummaries(ctx)
	if err != nil {
		summaries = -1
	}
	details, err := h.store.CountDetails(ctx)
	if err != nil {
		details = -1
	}

	uptime := formatDuration(time.Since(h.startTime))

	var lines []string
	lines = append(lines, "📊 *Bot Status*\n")
	lines = append(lines, fmt.Sprintf("🎬 Seasonal entries: %d", summaries))
	lines = append(lines, fmt.Sprintf("📖 Detailed titles: %d", details))
	lines = append(lines, fmt.Sprintf("⏱ Uptime: %s", uptime))

	if err := h.telegram.SendMarkdown(chatID, strings.Join(lines, "\n")); err != nil {
		log.Error().Err(err).Int64("chatID", chatID).Msg("Failed to send status")
	}
}

// sendDetail sends the full info card, with picture when available.
func (h *Handler) sendDetail(chatID int64, detail *model.AnimeDetail, prefix string) {
	text := prefix + FormatAnimeDetail(detail)

	if pictureURL := PictureURL(detail); pictureURL != "" {
		if err := h.telegram.SendPhoto(chatID, pictureURL, text); err == nil {
			return
		}
	}
	if err := h.telegram.SendMarkdown(chatID, text); err != nil {
		log.Error().Err(err).Int64("chatID", chatID).Msg("Failed to send anime detail")
	}
}

// sendCandidates sends the ranked search candidates, with the follow-up
// command hint, plus result images when the search variant provides them.
func (h *Handler) sendCandidates(ctx context.Context, chatID int64, candidates []subscription.Candidate, nextCommand string) {
	if len(candidates) == 0 {
		if err := h.telegram.SendMessage(chatID, "🔍 No matching anime found. Try other keywords."); err != nil {
			log.Error().Err(err).Int64("chatID", chatID).Msg("Failed to send no results message")
		}
		return
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("🔍 *Found these titles*\\. Use `%s [id]` to pick one:\n", EscapeMarkdown(nextCommand)))
	for _, c := range candidates {
		lines = append(lines, fmt.Sprintf("`%d`: %s", c.ID, EscapeMarkdown(c.Title)))
	}

	if err := h.telegram.SendMarkdown(chatID, strings.Join(lines, "\n")); err != nil {
		log.Error().Err(err).Int64("chatID", chatID).Msg("Failed to send candidates")
		return
	}

	if h.images == nil {
		return
	}
	for _, c := range candidates {
		if c.ImageURL == "" {
			continue
		}
		data, err := h.images.FetchImage(ctx, c.ImageURL)
		if err != nil {
			log.Warn().Err(err).Int("animeID", c.ID).Msg("Failed to fetch result image")
			continue
		}
		caption := fmt.Sprintf("`%d`: %s", c.ID, EscapeMarkdown(c.Title))
		if err := h.telegram.SendPhotoBytes(chatID, fmt.Sprintf("%d.jpg", c.ID), data, caption); err != nil {
			log.Warn().Err(err).Int("animeID", c.ID).Msg("Failed to send result image")
		}
	}
}

// reportSearchError maps manager errors to user-facing messages.
func (h *Handler) reportSearchError(chatID int64, command string, err error) {
	switch {
	case errors.Is(err, subscription.ErrBadInput):
		h.sendError(chatID, fmt.Sprintf("Usage: %s [anime title or id]", command))
	case errors.Is(err, subscription.ErrNotFound):
		h.sendError(chatID, "No anime with that id. Check the id and try again.")
	default:
		log.Error().Err(err).Msg("Search failed")
		h.sendError(chatID, "Search failed. Please try again later.")
	}
}

// sendError sends an error message to a chat
func (h *Handler) sendError(chatID int64, message string) {
	if err := h.telegram.SendMessage(chatID, "❌ "+message); err != nil {
		log.Error().Err(err).Int64("chatID", chatID).Msg("Failed to send error message")
	}
}

// formatDuration formats a duration into a human-readable string
func formatDuration(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
