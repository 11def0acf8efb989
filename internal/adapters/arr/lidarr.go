package arr

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"searcharr/internal/core/domain/models"
	"searcharr/internal/core/domain/ports"
)

var _ ports.WantedSource = (*Lidarr)(nil)

// Lidarr speaks the Lidarr v1 wanted/command dialect. Album records are
// preferred; a record with only an artist id falls back to an artist search.
type Lidarr struct {
	c *Client
}

func NewLidarr(c *Client) *Lidarr { return &Lidarr{c: c} }

type lidarrRecord struct {
	ID       *int64 `json:"id"`
	AlbumID  *int64 `json:"albumId"`
	ArtistID *int64 `json:"artistId"`
	Title    string `json:"title"`
	Artist   *struct {
		ID         *int64 `json:"id"`
		ArtistName string `json:"artistName"`
		Name       string `json:"name"`
	} `json:"artist"`
}

func (l *Lidarr) FetchPool(ctx context.Context, pool models.Pool) ([]models.Candidate, error) {
	extra := url.Values{"includeArtist": []string{"true"}}
	raw, err := l.c.fetchPaged(ctx, wantedPath(pool), extra)
	if err != nil {
		return nil, err
	}

	candidates := make([]models.Candidate, 0, len(raw))
	for _, msg := range raw {
		var rec lidarrRecord
		if err := json.Unmarshal(msg, &rec); err != nil {
			return nil, fmt.Errorf("decode lidarr record: %w", err)
		}

		var nestedArtistID *int64
		if rec.Artist != nil {
			nestedArtistID = rec.Artist.ID
		}
		albumID := firstID(rec.ID, rec.AlbumID)
		artistID := firstID(rec.ArtistID, nestedArtistID)
		artist := rec.artistLabel(artistID)

		var candidate models.Candidate
		switch {
		case albumID != nil:
			title := rec.Title
			if title == "" {
				title = "<unknown>"
			}
			candidate = models.Candidate{
				ContentKey: fmt.Sprintf("album:%d", *albumID),
				Command:    models.SearchCommand{Name: "AlbumSearch", AlbumIDs: []int64{*albumID}},
				Summary:    fmt.Sprintf("artist=%q album=%q album_id=%d", artist, title, *albumID),
			}
		case artistID != nil:
			candidate = models.Candidate{
				ContentKey: fmt.Sprintf("artist:%d", *artistID),
				Command:    models.SearchCommand{Name: "ArtistSearch", ArtistID: artistID},
				Summary:    fmt.Sprintf("artist=%q artist_id=%d", artist, *artistID),
			}
		default:
			continue
		}

		candidate.Pool = pool
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}

func (l *Lidarr) TriggerSearch(ctx context.Context, candidate models.Candidate) (models.CommandResult, error) {
	return l.c.postCommand(ctx, candidate.Command)
}

func (rec *lidarrRecord) artistLabel(artistID *int64) string {
	if rec.Artist != nil {
		if rec.Artist.ArtistName != "" {
			return rec.Artist.ArtistName
		}
		if rec.Artist.Name != "" {
			return rec.Artist.Name
		}
	}
	if artistID != nil {
		return fmt.Sprintf("<id:%d>", *artistID)
	}
	return "<unknown>"
}
