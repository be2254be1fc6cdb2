package openlibrary

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"shelfmark/pkg/apperr"
)

const (
	DefaultBaseURL   = "https://openlibrary.org"
	DefaultCoversURL = "https://covers.openlibrary.org"
)

// Client talks to the Open Library search and books APIs. Base URLs are
// fields so tests can point it at a local server.
type Client struct {
	HTTP      *http.Client
	BaseURL   string
	CoversURL string
}

func NewClient() *Client {
	return &Client{
		HTTP:      &http.Client{Timeout: 30 * time.Second},
		BaseURL:   DefaultBaseURL,
		CoversURL: DefaultCoversURL,
	}
}

// flexText tolerates the shapes Open Library uses for free-text fields:
// a plain string, a list of strings, or a {"type":..., "value":...} object.
type flexText string

func (f *flexText) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexText(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		if len(list) > 0 {
			*f = flexText(list[0])
		}
		return nil
	}
	var obj struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(b, &obj); err == nil {
		*f = flexText(obj.Value)
		return nil
	}
	return fmt.Errorf("unexpected text shape: %s", string(b))
}

// Doc is one result from /search.json. Only the fields the lookups ask
// for are populated; everything else is excluded via the fields param.
type Doc struct {
	Key           string   `json:"key"`
	Title         string   `json:"title"`
	AuthorName    []string `json:"author_name"`
	CoverI        *int64   `json:"cover_i"`
	EditionKey    []string `json:"edition_key"`
	FirstSentence flexText `json:"first_sentence"`
	Subtitle      string   `json:"subtitle"`
	Text          flexText `json:"text"`
	Subject       []string `json:"subject"`
	SubjectFacet  []string `json:"subject_facet"`
	SubjectKey    []string `json:"subject_key"`
}

type searchResponse struct {
	Docs []Doc `json:"docs"`
}

type workResponse struct {
	Description flexText `json:"description"`
}

type editionResponse struct {
	Description flexText `json:"description"`
	Notes       flexText `json:"notes"`
}

// searchQuery builds the q param: quoted title, plus the author when known.
func searchQuery(title, author string) string {
	if author != "" {
		return fmt.Sprintf("%q %s", title, author)
	}
	return fmt.Sprintf("%q", title)
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return apperr.NewRemoteError("OpenLibrary request failed: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return apperr.NewRemoteError("OpenLibrary HTTP %d", res.StatusCode)
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return apperr.NewRemoteError("OpenLibrary bad response: %v", err)
	}
	return nil
}

func (c *Client) search(ctx context.Context, title, author, fields string) ([]Doc, error) {
	q := url.Values{}
	q.Set("q", searchQuery(title, author))
	q.Set("limit", "5")
	q.Set("fields", fields)

	var resp searchResponse
	if err := c.getJSON(ctx, c.BaseURL+"/search.json?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	return resp.Docs, nil
}

func (c *Client) work(ctx context.Context, workKey string) (*workResponse, error) {
	var resp workResponse
	if err := c.getJSON(ctx, c.BaseURL+workKey+".json", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) edition(ctx context.Context, olid string) (*editionResponse, error) {
	var resp editionResponse
	if err := c.getJSON(ctx, c.BaseURL+"/books/"+olid+".json", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
