package bot

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/user/anime-notify-bot/internal/mal"
	"github.com/user/anime-notify-bot/internal/model"
)

// Human-readable names for the provider's enum-ish fields. Unmapped values
// fall back to the raw string with underscores replaced.
var mediaTypeNames = map[string]string{
	"tv":      "TV",
	"movie":   "Movie",
	"music":   "Music",
	"ova":     "OVA",
	"ona":     "ONA",
	"special": "Special",
	"unknown": "Unknown",
}

var statusNames = map[string]string{
	"finished_airing":  "Finished airing",
	"currently_airing": "Currently airing",
	"not_yet_aired":    "Not yet aired",
}

var seasonNames = map[string]string{
	model.SeasonWinter: "Winter",
	model.SeasonSpring: "Spring",
	model.SeasonSummer: "Summer",
	model.SeasonFall:   "Fall",
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func humanize(s string) string {
	if s == "" {
		return "Unknown"
	}
	return strings.ReplaceAll(s, "_", " ")
}

func mediaTypeName(s string) string {
	if name, ok := mediaTypeNames[s]; ok {
		return name
	}
	return humanize(s)
}

func statusName(s string) string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return humanize(s)
}

// EscapeMarkdown escapes special characters for Telegram MarkdownV2 format
func EscapeMarkdown(text string) string {
	specialChars := []string{"_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}
	result := text
	for _, char := range specialChars {
		result = strings.ReplaceAll(result, char, "\\"+char)
	}
	return result
}

// DisplayTitle picks the best human title: the Japanese one when present,
// then English, then the first synonym, then the main title.
func DisplayTitle(detail *model.AnimeDetail) string {
	var alt mal.AlternativeTitles
	if len(detail.AlternativeTitles) > 0 {
		_ = json.Unmarshal(detail.AlternativeTitles, &alt)
	}

	switch {
	case alt.Ja != "":
		return alt.Ja
	case alt.En != "":
		return alt.En
	case len(alt.Synonyms) > 0 && alt.Synonyms[0] != "":
		return alt.Synonyms[0]
	default:
		return detail.Title
	}
}

// PictureURL extracts the large main picture URL, empty when absent.
func PictureURL(detail *model.AnimeDetail) string {
	if len(detail.MainPicture) == 0 {
		return ""
	}
	var pic mal.Picture
	if err := json.Unmarshal(detail.MainPicture, &pic); err != nil {
		return ""
	}
	if pic.Large != "" {
		return pic.Large
	}
	return pic.Medium
}

// FormatAnimeDetail renders the full info card for a title
func FormatAnimeDetail(detail *model.AnimeDetail) string {
	var lines []string

	lines = append(lines, fmt.Sprintf("🎬 *%s*", EscapeMarkdown(DisplayTitle(detail))))

	lines = append(lines, fmt.Sprintf("📺 %d episodes, %s",
		detail.NumEpisodes, EscapeMarkdown(statusName(detail.Status))))

	season := detail.StartSeason()
	if detail.StartDate != "" {
		line := fmt.Sprintf("📅 Airs from %s", EscapeMarkdown(detail.StartDate))
		if name, ok := seasonNames[season.Name]; ok {
			line += fmt.Sprintf(" \\(%s %d\\)", name, season.Year)
		}
		lines = append(lines, line)
	}

	if b := detail.Broadcast(); b.DayOfWeek != model.BroadcastDayUnknown {
		slot := titleCase(b.DayOfWeek)
		if b.StartTime != "" {
			slot += " " + b.StartTime
		}
		lines = append(lines, fmt.Sprintf("🕒 Broadcasts every %s \\(JST\\)", EscapeMarkdown(slot)))
	}

	lines = append(lines, fmt.Sprintf("🏷 %s %s",
		EscapeMarkdown(humanize(detail.Source)), EscapeMarkdown(mediaTypeName(detail.MediaType))))

	if detail.AverageEpisodeDuration > 0 {
		lines = append(lines, fmt.Sprintf("⏱ %d min per episode", detail.AverageEpisodeDuration/60))
	}

	if studios := studioNames(detail); studios != "" {
		lines = append(lines, fmt.Sprintf("🏢 %s", EscapeMarkdown(studios)))
	}

	if stats := formatStatistics(detail); stats != "" {
		lines = append(lines, stats)
	}

	return strings.Join(lines, "\n")
}

// studioNames joins the production studio names, empty when unknown.
func studioNames(detail *model.AnimeDetail) string {
	if len(detail.Studios) == 0 {
		return ""
	}
	var studios []mal.Studio
	if err := json.Unmarshal(detail.Studios, &studios); err != nil {
		return ""
	}
	names := make([]string, 0, len(studios))
	for _, s := range studios {
		if s.Name != "" {
			names = append(names, s.Name)
		}
	}
	return strings.Join(names, ", ")
}

// formatStatistics renders the watch-status breakdown, empty when absent.
func formatStatistics(detail *model.AnimeDetail) string {
	if len(detail.Statistics) == 0 {
		return ""
	}
	var stats mal.Statistics
	if err := json.Unmarshal(detail.Statistics, &stats); err != nil {
		return ""
	}

	return fmt.Sprintf("👀 %s watching, %s completed, %s on hold, %s dropped, %s planning \\(%d listed\\)",
		EscapeMarkdown(stats.Status.Watching.String()),
		EscapeMarkdown(stats.Status.Completed.String()),
		EscapeMarkdown(stats.Status.OnHold.String()),
		EscapeMarkdown(stats.Status.Dropped.String()),
		EscapeMarkdown(stats.Status.PlanToWatch.String()),
		stats.NumListUsers)
}

// FormatAiringNotification renders the weekly airing alert, tagging the
// subscribed user.
func FormatAiringNotification(userID int64, detail *model.AnimeDetail) string {
	mention := fmt.Sprintf("[✨](tg://user?id=%d)", userID)
	return fmt.Sprintf("%s📢 *%s* is airing now\\!\n\n%s",
		mention, EscapeMarkdown(DisplayTitle(detail)), FormatAnimeDetail(detail))
}
