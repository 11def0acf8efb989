package arr

import (
	"context"
	"encoding/json"
	"fmt"

	"searcharr/internal/core/domain/models"
	"searcharr/internal/core/domain/ports"
)

var _ ports.WantedSource = (*Radarr)(nil)

// Radarr speaks the Radarr v3 wanted/command dialect.
type Radarr struct {
	c *Client
}

func NewRadarr(c *Client) *Radarr { return &Radarr{c: c} }

type radarrRecord struct {
	ID      *int64 `json:"id"`
	MovieID *int64 `json:"movieId"`
	Title   string `json:"title"`
	Movie   *struct {
		ID    *int64 `json:"id"`
		Title string `json:"title"`
	} `json:"movie"`
}

func (r *Radarr) FetchPool(ctx context.Context, pool models.Pool) ([]models.Candidate, error) {
	raw, err := r.c.fetchPaged(ctx, wantedPath(pool), nil)
	if err != nil {
		return nil, err
	}

	candidates := make([]models.Candidate, 0, len(raw))
	for _, msg := range raw {
		var rec radarrRecord
		if err := json.Unmarshal(msg, &rec); err != nil {
			return nil, fmt.Errorf("decode radarr record: %w", err)
		}

		var nestedID *int64
		if rec.Movie != nil {
			nestedID = rec.Movie.ID
		}
		movieID := firstID(rec.ID, rec.MovieID, nestedID)
		if movieID == nil {
			continue
		}

		title := rec.Title
		if title == "" && rec.Movie != nil {
			title = rec.Movie.Title
		}
		if title == "" {
			title = "<unknown>"
		}

		candidates = append(candidates, models.Candidate{
			ContentKey: fmt.Sprintf("movie:%d", *movieID),
			Pool:       pool,
			Command:    models.SearchCommand{Name: "MoviesSearch", MovieIDs: []int64{*movieID}},
			Summary:    fmt.Sprintf("title=%q movie_id=%d", title, *movieID),
		})
	}
	return candidates, nil
}

func (r *Radarr) TriggerSearch(ctx context.Context, candidate models.Candidate) (models.CommandResult, error) {
	return r.c.postCommand(ctx, candidate.Command)
}
