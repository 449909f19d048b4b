package mal

import "encoding/json"

// Picture holds the provider's image URLs for a title.
type Picture struct {
	Medium string `json:"medium"`
	Large  string `json:"large"`
}

// Node is the compact per-title record inside a seasonal listing.
type Node struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	MainPicture *Picture `json:"main_picture,omitempty"`
}

// Entry wraps a Node the way the seasonal listing endpoint returns it.
type Entry struct {
	Node Node `json:"node"`
}

// SeasonRef tags a listing or a title with its release quarter.
type SeasonRef struct {
	Year   int    `json:"year"`
	Season string `json:"season"`
}

// SeasonalAnime is the response of the seasonal listing endpoint.
type SeasonalAnime struct {
	Data   []Entry         `json:"data"`
	Paging json.RawMessage `json:"paging"`
	Season SeasonRef       `json:"season"`
}

// AlternativeTitles carries the localized and synonym titles of an anime.
type AlternativeTitles struct {
	Synonyms []string `json:"synonyms"`
	En       string   `json:"en"`
	Ja       string   `json:"ja"`
}

// Studio identifies a production studio.
type Studio struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Broadcast is the provider's weekly airing slot record.
type Broadcast struct {
	DayOfWeek string `json:"day_of_the_week"`
	StartTime string `json:"start_time"`
}

// StatusCounts breaks down list membership by watch status. The provider is
// inconsistent about returning these as numbers or strings, hence json.Number.
type StatusCounts struct {
	Watching    json.Number `json:"watching"`
	Completed   json.Number `json:"completed"`
	OnHold      json.Number `json:"on_hold"`
	Dropped     json.Number `json:"dropped"`
	PlanToWatch json.Number `json:"plan_to_watch"`
}

// Statistics aggregates list membership counts for a title.
type Statistics struct {
	Status       StatusCounts `json:"status"`
	NumListUsers int          `json:"num_list_users"`
}

// AnimeDetail is the full metadata record of the detail endpoint.
type AnimeDetail struct {
	ID                     int               `json:"id"`
	Title                  string            `json:"title"`
	MainPicture            *Picture          `json:"main_picture,omitempty"`
	AlternativeTitles      AlternativeTitles `json:"alternative_titles"`
	StartDate              string            `json:"start_date"`
	EndDate                string            `json:"end_date"`
	Synopsis               string            `json:"synopsis"`
	MediaType              string            `json:"media_type"`
	Status                 string            `json:"status"`
	NumEpisodes            int               `json:"num_episodes"`
	StartSeason            *SeasonRef        `json:"start_season,omitempty"`
	Broadcast              *Broadcast        `json:"broadcast,omitempty"`
	Source                 string            `json:"source"`
	AverageEpisodeDuration int               `json:"average_episode_duration"`
	Background             string            `json:"background"`
	Studios                []Studio          `json:"studios"`
	Statistics             json.RawMessage   `json:"statistics"`
}
