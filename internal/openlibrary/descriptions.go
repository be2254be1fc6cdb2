package openlibrary

import (
	"context"
	"regexp"
	"strings"
)

type DescriptionResult struct {
	Text   string
	Source string
}

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]*>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// CleanText strips markup tags and collapses runs of whitespace.
func CleanText(t string) string {
	t = htmlTagRe.ReplaceAllString(t, " ")
	t = whitespaceRe.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

// splitSentences cuts after sentence-ending punctuation followed by a
// space, keeping the punctuation with its sentence.
func splitSentences(s string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s)-1; i++ {
		switch s[i] {
		case '.', '!', '?':
			if s[i+1] == ' ' {
				parts = append(parts, s[start:i+1])
				start = i + 2
				i++
			}
		}
	}
	if start < len(s) {
		parts = append(parts, s[start:])
	}
	return parts
}

// ToShortBlurb trims a raw description down to card size: at most two
// sentences and 350 characters.
func ToShortBlurb(text string) string {
	clean := CleanText(text)
	if clean == "" {
		return ""
	}

	parts := splitSentences(clean)
	if len(parts) > 2 {
		parts = parts[:2]
	}
	blurb := strings.Join(parts, " ")

	runes := []rune(blurb)
	if len(runes) > 350 {
		blurb = string(runes[:350])
	}
	return blurb
}

// LookupDescription tries three layers per search hit, cheapest first:
// the search doc's own blurb fields, then the work record, then up to
// two of the hit's editions. Failures on the deeper fetches are skipped
// rather than aborting the lookup. Returns nil when nothing surfaced.
func (c *Client) LookupDescription(ctx context.Context, title, author string) (*DescriptionResult, error) {
	docs, err := c.search(ctx, title, author, "key,first_sentence,subtitle,text,edition_key")
	if err != nil {
		return nil, err
	}

	for _, doc := range docs {
		blurb := string(doc.FirstSentence)
		if blurb == "" {
			blurb = doc.Subtitle
		}
		if blurb == "" {
			blurb = string(doc.Text)
		}
		if blurb != "" {
			return &DescriptionResult{
				Text:   ToShortBlurb(blurb),
				Source: "openlibrary:search",
			}, nil
		}

		if strings.HasPrefix(doc.Key, "/works/") {
			if work, err := c.work(ctx, doc.Key); err == nil {
				if d := string(work.Description); d != "" {
					return &DescriptionResult{
						Text:   ToShortBlurb(d),
						Source: "openlibrary:work:" + doc.Key,
					}, nil
				}
			}
		}

		eds := doc.EditionKey
		if len(eds) > 2 {
			eds = eds[:2]
		}
		for _, olid := range eds {
			ed, err := c.edition(ctx, olid)
			if err != nil {
				continue
			}
			d := string(ed.Description)
			if d == "" {
				d = string(ed.Notes)
			}
			if d != "" {
				return &DescriptionResult{
					Text:   ToShortBlurb(d),
					Source: "openlibrary:edition:" + olid,
				}, nil
			}
		}
	}
	return nil, nil
}
