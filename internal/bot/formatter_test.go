package bot

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"gorm.io/datatypes"

	"github.com/user/anime-notify-bot/internal/model"
)

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello", "hello"},
		{"hello_world", "hello\\_world"},
		{"*bold*", "\\*bold\\*"},
		{"[link](url)", "\\[link\\]\\(url\\)"},
		{"code`here", "code\\`here"},
		{"a.b-c!d", "a\\.b\\-c\\!d"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := EscapeMarkdown(tt.input); got != tt.expected {
			t.Errorf("EscapeMarkdown(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

// Every MarkdownV2 special character in the escaped output must carry a
// preceding backslash, whatever the input.
func TestEscapeMarkdownProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	specials := "_*[]()~`>#+-=|{}.!"

	properties.Property("special characters are always escaped", prop.ForAll(
		func(s string) bool {
			escaped := EscapeMarkdown(s)
			for i, r := range escaped {
				if strings.ContainsRune(specials, r) {
					if i == 0 || escaped[i-1] != '\\' {
						return false
					}
				}
			}
			return true
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

func TestDisplayTitlePreference(t *testing.T) {
	tests := []struct {
		name   string
		detail *model.AnimeDetail
		want   string
	}{
		{
			"japanese first",
			&model.AnimeDetail{
				Title:             "Sousou no Frieren",
				AlternativeTitles: datatypes.JSON(`{"ja":"葬送のフリーレン","en":"Frieren: Beyond Journey's End"}`),
			},
			"葬送のフリーレン",
		},
		{
			"english when no japanese",
			&model.AnimeDetail{
				Title:             "Sousou no Frieren",
				AlternativeTitles: datatypes.JSON(`{"en":"Frieren: Beyond Journey's End"}`),
			},
			"Frieren: Beyond Journey's End",
		},
		{
			"synonym when nothing localized",
			&model.AnimeDetail{
				Title:             "Sousou no Frieren",
				AlternativeTitles: datatypes.JSON(`{"synonyms":["Frieren at the Funeral"]}`),
			},
			"Frieren at the Funeral",
		},
		{
			"main title fallback",
			&model.AnimeDetail{Title: "Sousou no Frieren"},
			"Sousou no Frieren",
		},
		{
			"malformed json falls back",
			&model.AnimeDetail{Title: "Sousou no Frieren", AlternativeTitles: datatypes.JSON(`{broken`)},
			"Sousou no Frieren",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayTitle(tt.detail); got != tt.want {
				t.Errorf("DisplayTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPictureURL(t *testing.T) {
	tests := []struct {
		name   string
		detail *model.AnimeDetail
		want   string
	}{
		{
			"prefers large",
			&model.AnimeDetail{MainPicture: datatypes.JSON(`{"medium":"https://cdn/m.jpg","large":"https://cdn/l.jpg"}`)},
			"https://cdn/l.jpg",
		},
		{
			"falls back to medium",
			&model.AnimeDetail{MainPicture: datatypes.JSON(`{"medium":"https://cdn/m.jpg"}`)},
			"https://cdn/m.jpg",
		},
		{"absent", &model.AnimeDetail{}, ""},
		{"malformed", &model.AnimeDetail{MainPicture: datatypes.JSON(`[1,2]`)}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PictureURL(tt.detail); got != tt.want {
				t.Errorf("PictureURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatAnimeDetail(t *testing.T) {
	detail := &model.AnimeDetail{
		ID:                     52991,
		Title:                  "Sousou no Frieren",
		StartDate:              "2023-09-29",
		Status:                 "finished_airing",
		MediaType:              "tv",
		Source:                 "manga",
		NumEpisodes:            28,
		SeasonYear:             2023,
		SeasonName:             model.SeasonFall,
		BroadcastDay:           "friday",
		BroadcastTime:          "23:00",
		AverageEpisodeDuration: 1440,
		Studios:                datatypes.JSON(`[{"id":11,"name":"Madhouse"}]`),
		Statistics:             datatypes.JSON(`{"status":{"watching":"100","completed":"200","on_hold":"3","dropped":"4","plan_to_watch":"50"},"num_list_users":357}`),
	}

	card := FormatAnimeDetail(detail)

	for _, want := range []string{
		"🎬 *Sousou no Frieren*",
		"📺 28 episodes, Finished airing",
		"Airs from 2023\\-09\\-29",
		"\\(Fall 2023\\)",
		"Broadcasts every Friday 23:00 \\(JST\\)",
		"🏷 manga TV",
		"⏱ 24 min per episode",
		"🏢 Madhouse",
		"👀 100 watching, 200 completed",
		"\\(357 listed\\)",
	} {
		if !strings.Contains(card, want) {
			t.Errorf("card missing %q:\n%s", want, card)
		}
	}
}

func TestFormatAnimeDetailSparse(t *testing.T) {
	detail := &model.AnimeDetail{
		ID:         1,
		Title:      "Mystery OVA",
		Status:     "not_yet_aired",
		MediaType:  "ova",
		SeasonName: model.SeasonUnknown,
	}
	if detail.BroadcastDay == "" {
		detail.BroadcastDay = model.BroadcastDayUnknown
	}

	card := FormatAnimeDetail(detail)

	if strings.Contains(card, "Airs from") {
		t.Error("card shows an air date with none stored")
	}
	if strings.Contains(card, "Broadcasts every") {
		t.Error("card shows a broadcast slot with none stored")
	}
	if strings.Contains(card, "min per episode") {
		t.Error("card shows a duration with none stored")
	}
	if !strings.Contains(card, "Not yet aired") {
		t.Errorf("card missing status:\n%s", card)
	}
}

func TestFormatAiringNotification(t *testing.T) {
	detail := &model.AnimeDetail{
		ID:           52991,
		Title:        "Sousou no Frieren",
		Status:       "currently_airing",
		MediaType:    "tv",
		BroadcastDay: "friday",
	}

	msg := FormatAiringNotification(7, detail)

	if !strings.Contains(msg, "[✨](tg://user?id=7)") {
		t.Errorf("notification missing user mention:\n%s", msg)
	}
	if !strings.Contains(msg, "*Sousou no Frieren* is airing now\\!") {
		t.Errorf("notification missing airing headline:\n%s", msg)
	}
	if !strings.Contains(msg, "Currently airing") {
		t.Errorf("notification missing detail card:\n%s", msg)
	}
}
