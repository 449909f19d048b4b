package model

import (
	"time"

	"gorm.io/datatypes"
)

// AnimeSummary is a catalog stub created when a seasonal listing first yields
// an id. Existence alone marks the id as known; rows are never updated.
type AnimeSummary struct {
	ID         int            `gorm:"primaryKey"`
	Node       datatypes.JSON // raw provider node
	Paging     datatypes.JSON // paging context of the listing that produced it
	SeasonYear int            `gorm:"index"`
	SeasonName string         `gorm:"size:10;index"`
	LastSync   time.Time
	CreatedAt  time.Time
}

// TableName returns the table name for AnimeSummary
func (AnimeSummary) TableName() string {
	return "anime_summaries"
}

// Season returns the release quarter tag of the listing this stub came from.
func (s *AnimeSummary) Season() Season {
	return Season{Year: s.SeasonYear, Name: s.SeasonName}
}

// AnimeDetail is the full metadata record for a title. It shares its id
// namespace with AnimeSummary and is immutable after insert; staleness is an
// accepted tradeoff since there is no refresh path.
type AnimeDetail struct {
	ID                     int    `gorm:"primaryKey"`
	Title                  string `gorm:"size:500"`
	MainPicture            datatypes.JSON
	AlternativeTitles      datatypes.JSON
	StartDate              string `gorm:"size:10"`
	EndDate                string `gorm:"size:10"`
	Synopsis               string `gorm:"type:text"`
	MediaType              string `gorm:"size:20"`
	Status                 string `gorm:"size:30"`
	NumEpisodes            int
	SeasonYear             int
	SeasonName             string `gorm:"size:10"`
	BroadcastDay           string `gorm:"size:10"`
	BroadcastTime          string `gorm:"size:5"`
	Source                 string `gorm:"size:30"`
	AverageEpisodeDuration int
	Background             string `gorm:"type:text"`
	Studios                datatypes.JSON
	Statistics             datatypes.JSON
	CreatedAt              time.Time
}

// TableName returns the table name for AnimeDetail
func (AnimeDetail) TableName() string {
	return "anime_details"
}

// StartSeason returns the quarter the title started airing in, or an
// "unknown" season when the provider omitted it.
func (d *AnimeDetail) StartSeason() Season {
	return Season{Year: d.SeasonYear, Name: d.SeasonName}
}

// Broadcast returns the weekly airing slot of the title.
func (d *AnimeDetail) Broadcast() Broadcast {
	return Broadcast{DayOfWeek: d.BroadcastDay, StartTime: d.BroadcastTime}
}
