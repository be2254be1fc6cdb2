package openlibrary

import (
	"context"
	"fmt"
)

// CoverResult carries the medium-size cover URL plus a provenance tag
// recorded next to it in the catalogue.
type CoverResult struct {
	URL    string
	Source string
}

func (c *Client) coverURLFromCoverID(id int64) string {
	return fmt.Sprintf("%s/b/id/%d-M.jpg", c.CoversURL, id)
}

func (c *Client) coverURLFromEditionOLID(olid string) string {
	return fmt.Sprintf("%s/b/olid/%s-M.jpg", c.CoversURL, olid)
}

// LookupCover walks the top search hits and takes the first usable cover:
// a numeric cover id wins, otherwise the first edition OLID (the OLID
// cover endpoint sometimes works even when cover_i is missing). Returns
// nil when no hit had either.
func (c *Client) LookupCover(ctx context.Context, title, author string) (*CoverResult, error) {
	docs, err := c.search(ctx, title, author, "key,cover_i,edition_key,title,author_name")
	if err != nil {
		return nil, err
	}

	for _, doc := range docs {
		if doc.CoverI != nil {
			return &CoverResult{
				URL:    c.coverURLFromCoverID(*doc.CoverI),
				Source: fmt.Sprintf("openlibrary:cover_i:%d", *doc.CoverI),
			}, nil
		}
		if len(doc.EditionKey) > 0 {
			olid := doc.EditionKey[0]
			return &CoverResult{
				URL:    c.coverURLFromEditionOLID(olid),
				Source: "openlibrary:edition:" + olid,
			}, nil
		}
	}
	return nil, nil
}
