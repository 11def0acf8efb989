package models

// Pool identifies which wanted list a candidate came from.
type Pool string

const (
	PoolMissing     Pool = "missing"
	PoolCutoffUnmet Pool = "cutoff_unmet"
)

// SearchCommand is the payload posted to the server's command endpoint. One
// struct covers all three dialects; omitempty keeps the wire shape per vendor.
type SearchCommand struct {
	Name         string  `json:"name"`
	MovieIDs     []int64 `json:"movieIds,omitempty"`
	SeriesID     *int64  `json:"seriesId,omitempty"`
	SeasonNumber *int64  `json:"seasonNumber,omitempty"`
	EpisodeIDs   []int64 `json:"episodeIds,omitempty"`
	AlbumIDs     []int64 `json:"albumIds,omitempty"`
	ArtistID     *int64  `json:"artistId,omitempty"`
}

// Candidate is one item eligible for a search. Candidates are fetched fresh
// each run and never persisted; only the scoped ContentKey outlives the run.
type Candidate struct {
	// ContentKey is stable within one server and pool, e.g. "movie:12" or
	// "series:5:season:2". Persisted state scopes it with the server identity.
	ContentKey string
	Pool       Pool
	Command    SearchCommand
	// Summary is a human-readable description of the item for log output.
	Summary string
}

// CommandResult is the server's acknowledgement of a queued search command.
type CommandResult struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}
