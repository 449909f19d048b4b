package mal

import (
	"encoding/json"
	"time"

	"github.com/user/anime-notify-bot/internal/model"
	"gorm.io/datatypes"
)

// SummaryRecords converts one seasonal listing into catalog stub rows.
func SummaryRecords(listing *SeasonalAnime, now time.Time) []*model.AnimeSummary {
	summaries := make([]*model.AnimeSummary, 0, len(listing.Data))
	for _, entry := range listing.Data {
		node, err := json.Marshal(entry.Node)
		if err != nil {
			continue
		}
		summaries = append(summaries, &model.AnimeSummary{
			ID:         entry.Node.ID,
			Node:       datatypes.JSON(node),
			Paging:     datatypes.JSON(listing.Paging),
			SeasonYear: listing.Season.Year,
			SeasonName: listing.Season.Season,
			LastSync:   now,
		})
	}
	return summaries
}

// Record converts a provider detail into its catalog row. Optional fields
// the provider omitted become explicit "unknown" sentinels so downstream
// formatting never trips over their absence.
func (d *AnimeDetail) Record() *model.AnimeDetail {
	rec := &model.AnimeDetail{
		ID:                     d.ID,
		Title:                  d.Title,
		StartDate:              d.StartDate,
		EndDate:                d.EndDate,
		Synopsis:               d.Synopsis,
		MediaType:              d.MediaType,
		Status:                 d.Status,
		NumEpisodes:            d.NumEpisodes,
		SeasonName:             model.SeasonUnknown,
		BroadcastDay:           model.BroadcastDayUnknown,
		Source:                 d.Source,
		AverageEpisodeDuration: d.AverageEpisodeDuration,
		Background:             d.Background,
	}

	if d.StartSeason != nil {
		rec.SeasonYear = d.StartSeason.Year
		rec.SeasonName = d.StartSeason.Season
	}
	if d.Broadcast != nil && d.Broadcast.DayOfWeek != "" {
		rec.BroadcastDay = d.Broadcast.DayOfWeek
		rec.BroadcastTime = d.Broadcast.StartTime
	}

	if d.MainPicture != nil {
		if b, err := json.Marshal(d.MainPicture); err == nil {
			rec.MainPicture = datatypes.JSON(b)
		}
	}
	if b, err := json.Marshal(d.AlternativeTitles); err == nil {
		rec.AlternativeTitles = datatypes.JSON(b)
	}
	if b, err := json.Marshal(d.Studios); err == nil {
		rec.Studios = datatypes.JSON(b)
	}
	if len(d.Statistics) > 0 {
		rec.Statistics = datatypes.JSON(d.Statistics)
	}
	return rec
}
