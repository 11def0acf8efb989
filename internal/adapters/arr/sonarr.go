package arr

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"searcharr/internal/core/domain/models"
	"searcharr/internal/core/domain/ports"
)

var _ ports.WantedSource = (*Sonarr)(nil)

// Sonarr speaks the Sonarr v3 wanted/command dialect. A record is searched at
// the widest granularity its fields allow: season, then series, then episode.
type Sonarr struct {
	c *Client
}

func NewSonarr(c *Client) *Sonarr { return &Sonarr{c: c} }

type sonarrRecord struct {
	ID            *int64 `json:"id"`
	EpisodeID     *int64 `json:"episodeId"`
	SeriesID      *int64 `json:"seriesId"`
	SeasonNumber  *int64 `json:"seasonNumber"`
	EpisodeNumber *int64 `json:"episodeNumber"`
	Title         string `json:"title"`
	Series        *struct {
		ID    *int64 `json:"id"`
		Title string `json:"title"`
	} `json:"series"`
}

func (s *Sonarr) FetchPool(ctx context.Context, pool models.Pool) ([]models.Candidate, error) {
	extra := url.Values{"includeSeries": []string{"true"}}
	raw, err := s.c.fetchPaged(ctx, wantedPath(pool), extra)
	if err != nil {
		return nil, err
	}

	candidates := make([]models.Candidate, 0, len(raw))
	for _, msg := range raw {
		var rec sonarrRecord
		if err := json.Unmarshal(msg, &rec); err != nil {
			return nil, fmt.Errorf("decode sonarr record: %w", err)
		}

		var nestedSeriesID *int64
		if rec.Series != nil {
			nestedSeriesID = rec.Series.ID
		}
		seriesID := firstID(rec.SeriesID, nestedSeriesID)
		episodeID := firstID(rec.ID, rec.EpisodeID)
		series := rec.seriesLabel(seriesID)

		var candidate models.Candidate
		switch {
		case seriesID != nil && rec.SeasonNumber != nil:
			candidate = models.Candidate{
				ContentKey: fmt.Sprintf("series:%d:season:%d", *seriesID, *rec.SeasonNumber),
				Command: models.SearchCommand{
					Name:         "SeasonSearch",
					SeriesID:     seriesID,
					SeasonNumber: rec.SeasonNumber,
				},
				Summary: fmt.Sprintf("series=%q season=%d", series, *rec.SeasonNumber),
			}
		case seriesID != nil:
			candidate = models.Candidate{
				ContentKey: fmt.Sprintf("series:%d", *seriesID),
				Command:    models.SearchCommand{Name: "SeriesSearch", SeriesID: seriesID},
				Summary:    fmt.Sprintf("series=%q", series),
			}
		case episodeID != nil:
			title := rec.Title
			if title == "" {
				title = "<unknown>"
			}
			candidate = models.Candidate{
				ContentKey: fmt.Sprintf("episode:%d", *episodeID),
				Command:    models.SearchCommand{Name: "EpisodeSearch", EpisodeIDs: []int64{*episodeID}},
				Summary:    fmt.Sprintf("series=%q episode=%s title=%q", series, formatOptional(rec.EpisodeNumber), title),
			}
		default:
			continue
		}

		candidate.Pool = pool
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}

func (s *Sonarr) TriggerSearch(ctx context.Context, candidate models.Candidate) (models.CommandResult, error) {
	return s.c.postCommand(ctx, candidate.Command)
}

func (rec *sonarrRecord) seriesLabel(seriesID *int64) string {
	if rec.Series != nil && rec.Series.Title != "" {
		return rec.Series.Title
	}
	if seriesID != nil {
		return fmt.Sprintf("<id:%d>", *seriesID)
	}
	return "<unknown>"
}

func formatOptional(n *int64) string {
	if n == nil {
		return "<unknown>"
	}
	return fmt.Sprintf("%d", *n)
}
