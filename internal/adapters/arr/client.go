package arr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"searcharr/internal/adapters/util"
	"searcharr/internal/core/domain/models"
)

const requestTimeout = 30 * time.Second

// Client speaks the parts of the REST dialect shared by all three vendors:
// the paged wanted listings and the command endpoint.
type Client struct {
	apiBase  string
	pageSize int
	client   *http.Client
	log      *slog.Logger
}

func NewClient(apiBase, apiKey string, pageSize int, log *slog.Logger) *Client {
	return &Client{
		apiBase:  strings.TrimRight(apiBase, "/"),
		pageSize: pageSize,
		client: &http.Client{
			Transport: &util.APIKeyTransport{APIKey: apiKey, Log: log},
			Timeout:   requestTimeout,
		},
		log: log,
	}
}

func wantedPath(pool models.Pool) string {
	if pool == models.PoolCutoffUnmet {
		return "wanted/cutoff"
	}
	return "wanted/missing"
}

type pagedResponse struct {
	Page         int               `json:"page"`
	PageSize     int               `json:"pageSize"`
	TotalRecords *int              `json:"totalRecords"`
	Records      []json.RawMessage `json:"records"`
}

// fetchPaged drains a paged wanted endpoint. It stops on an empty page, when
// totalRecords is reached, or, when the server omits totalRecords, on the
// first short page.
func (c *Client) fetchPaged(ctx context.Context, path string, extra url.Values) ([]json.RawMessage, error) {
	var records []json.RawMessage

	for page := 1; ; page++ {
		payload, err := c.getPage(ctx, path, page, extra)
		if err != nil {
			return nil, err
		}
		records = append(records, payload.Records...)

		if len(payload.Records) == 0 {
			break
		}
		if payload.TotalRecords != nil && len(records) >= *payload.TotalRecords {
			break
		}
		if payload.TotalRecords == nil && len(payload.Records) < c.pageSize {
			break
		}
	}

	c.log.Debug("drained wanted listing", "path", path, "records", len(records))
	return records, nil
}

func (c *Client) getPage(ctx context.Context, path string, page int, extra url.Values) (*pagedResponse, error) {
	params := url.Values{}
	for key, values := range extra {
		params[key] = values
	}
	params.Set("page", strconv.Itoa(page))
	params.Set("pageSize", strconv.Itoa(c.pageSize))

	endpoint := fmt.Sprintf("%s/%s?%s", c.apiBase, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", path, resp.StatusCode)
	}

	var payload pagedResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("fetch %s: decode page %d: %w", path, page, err)
	}
	return &payload, nil
}

// postCommand queues a search command and returns the server's acknowledgement.
func (c *Client) postCommand(ctx context.Context, command models.SearchCommand) (models.CommandResult, error) {
	body, err := json.Marshal(command)
	if err != nil {
		return models.CommandResult{}, fmt.Errorf("encode command %s: %w", command.Name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+"/command", bytes.NewReader(body))
	if err != nil {
		return models.CommandResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return models.CommandResult{}, fmt.Errorf("command %s: %w", command.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return models.CommandResult{}, fmt.Errorf("command %s: status %d: %s",
			command.Name, resp.StatusCode, bytes.TrimSpace(respBody))
	}

	var result models.CommandResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return models.CommandResult{}, fmt.Errorf("command %s: decode response: %w", command.Name, err)
	}
	return result, nil
}

// firstID returns the first non-nil id. Wanted records carry the same id
// under different fields depending on endpoint and vendor version.
func firstID(ids ...*int64) *int64 {
	for _, id := range ids {
		if id != nil {
			return id
		}
	}
	return nil
}
