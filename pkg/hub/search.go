package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/clara-assistant/modelpull/pkg/logging"
)

// SearchClient queries the hub's model metadata API. Search failures never
// panic the caller: the client returns an empty result set alongside the
// error so UIs can render "no results" and surface the failure separately.
type SearchClient struct {
	endpoint string
	client   *http.Client
	headers  map[string]string
	logger   logging.Interface
}

// NewSearchClient builds a metadata client from the configuration.
func NewSearchClient(config *Config) *SearchClient {
	logger := config.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return &SearchClient{
		endpoint: strings.TrimRight(config.Endpoint, "/"),
		client:   newRequestClient(config.RequestTimeout),
		headers:  BuildHeaders(config.Token, config.UserAgent, nil),
		logger:   logger,
	}
}

// hubModel is the wire shape of one entry in the hub's model listing.
type hubModel struct {
	ID          string   `json:"id"`
	ModelID     string   `json:"modelId"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Downloads   int      `json:"downloads"`
	Likes       int      `json:"likes"`
	Siblings    []struct {
		Rfilename string `json:"rfilename"`
		Size      int64  `json:"size"`
	} `json:"siblings"`
	CardData struct {
		Description string `json:"description"`
	} `json:"cardData"`
}

// Search queries the hub for models matching query, restricted to the
// serialized-weights format this engine handles. An unrecognized sortKey
// falls back to popularity. Models whose listing contains no weights file are
// dropped from the results.
func (c *SearchClient) Search(ctx context.Context, query string, limit int, sortKey string) ([]ModelSummary, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	sortParam, ok := hubSortParams[sortKey]
	if !ok {
		sortParam = hubSortParams[SortPopularity]
	}

	params := url.Values{}
	params.Set("search", query)
	params.Set("filter", "gguf")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("sort", sortParam)
	params.Set("full", "true")

	searchURL := fmt.Sprintf("%s/api/models?%s", c.endpoint, params.Encode())

	var raw []hubModel
	if err := c.getJSON(ctx, searchURL, &raw); err != nil {
		c.logger.WithError(err).WithField("query", query).Error("Model search failed")
		return []ModelSummary{}, err
	}

	results := make([]ModelSummary, 0, len(raw))
	for _, m := range raw {
		summary := toModelSummary(m)
		if !hasWeightsFile(summary.FileListing) {
			continue
		}
		results = append(results, summary)
	}

	c.logger.WithField("query", query).WithField("results", len(results)).Debug("Model search completed")
	return results, nil
}

// ListFiles fetches the complete file listing of one repository.
func (c *SearchClient) ListFiles(ctx context.Context, repoID string) ([]ModelFileDescriptor, error) {
	infoURL := fmt.Sprintf("%s/api/models/%s", c.endpoint, repoID)

	var raw hubModel
	if err := c.getJSON(ctx, infoURL, &raw); err != nil {
		return nil, err
	}

	return toModelSummary(raw).FileListing, nil
}

// FileURL builds the direct download URL for one file of a repository.
func (c *SearchClient) FileURL(repoID, fileName string) string {
	return fmt.Sprintf("%s/%s/resolve/%s/%s", c.endpoint, repoID, DefaultRevision, fileName)
}

func (c *SearchClient) getJSON(ctx context.Context, requestURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return &AcquireError{Message: fmt.Sprintf("invalid hub URL '%s'", requestURL), Cause: err}
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &AcquireError{Message: fmt.Sprintf("request to %s failed", requestURL), Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return NewHTTPStatusError(requestURL, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &AcquireError{Message: "failed to decode hub response", Cause: err}
	}
	return nil
}

// toModelSummary normalizes one wire entry into the public summary shape,
// deriving the vision flag and companion candidates.
func toModelSummary(m hubModel) ModelSummary {
	id := m.ID
	if id == "" {
		id = m.ModelID
	}

	description := m.Description
	if description == "" {
		description = m.CardData.Description
	}

	listing := make([]ModelFileDescriptor, 0, len(m.Siblings))
	var companions []string
	for _, s := range m.Siblings {
		listing = append(listing, ModelFileDescriptor{Name: s.Rfilename, SizeHint: s.Size})
		if hasCompanionMarker(s.Rfilename) {
			companions = append(companions, s.Rfilename)
		}
	}

	return ModelSummary{
		ID:                      id,
		Description:             description,
		Tags:                    m.Tags,
		Downloads:               m.Downloads,
		Likes:                   m.Likes,
		FileListing:             listing,
		IsVisionModel:           looksLikeVisionModel(id, description, m.Tags),
		CandidateCompanionFiles: companions,
	}
}

func hasWeightsFile(listing []ModelFileDescriptor) bool {
	for _, f := range listing {
		if isWeightsFile(f.Name) {
			return true
		}
	}
	return false
}

// looksLikeVisionModel is a keyword guess over id, description and tags. It
// drives UI hints only; acquisition behavior never depends on it.
func looksLikeVisionModel(id, description string, tags []string) bool {
	haystack := strings.ToLower(id + " " + description + " " + strings.Join(tags, " "))
	for _, marker := range visionMarkers {
		if strings.Contains(haystack, marker) {
			return true
		}
	}
	return false
}
