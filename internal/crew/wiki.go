package crew

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/kemski/iss-position-checker/internal/upstream"
)

// wikiClient fetches page summaries from the Wikipedia REST API in one
// target language, following an English langlink when the target-language
// page exists under a different title.
type wikiClient struct {
	client *upstream.Client
	lang   string
	// hostFormat renders a language subdomain into a base URL; tests
	// point it at a local server.
	hostFormat string
	logger     *slog.Logger
}

const defaultWikiHostFormat = "https://%s.wikipedia.org"

type restSummary struct {
	Title     string `json:"title"`
	Extract   string `json:"extract"`
	Thumbnail struct {
		Source string `json:"source"`
	} `json:"thumbnail"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

type langlinkResponse struct {
	Query struct {
		Pages map[string]struct {
			Langlinks []struct {
				Star  string `json:"*"`
				Title string `json:"title"`
			} `json:"langlinks"`
		} `json:"pages"`
	} `json:"query"`
}

func (w *wikiClient) base(lang string) string {
	return fmt.Sprintf(w.hostFormat, lang)
}

// titleFromURL extracts the article title from a wikipedia.org/wiki/ URL.
// Returns "" when the URL does not point at an article.
func titleFromURL(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	const prefix = "/wiki/"
	if !strings.HasPrefix(u.Path, prefix) {
		return ""
	}
	title, err := url.PathUnescape(u.Path[len(prefix):])
	if err != nil {
		return ""
	}
	return title
}

func (w *wikiClient) summary(ctx context.Context, lang, title string) (restSummary, error) {
	var s restSummary
	u := w.base(lang) + "/api/rest_v1/page/summary/" + url.PathEscape(title)
	if err := w.client.GetJSON(ctx, u, &s); err != nil {
		return restSummary{}, err
	}
	return s, nil
}

// langlinkTitle resolves an English article title to its counterpart in
// the target language via the MediaWiki langlinks API. Returns "" when
// no such page exists.
func (w *wikiClient) langlinkTitle(ctx context.Context, enTitle string) (string, error) {
	q := url.Values{
		"action":  {"query"},
		"format":  {"json"},
		"titles":  {enTitle},
		"prop":    {"langlinks"},
		"lllang":  {w.lang},
		"lllimit": {"1"},
	}
	var resp langlinkResponse
	u := w.base("en") + "/w/api.php?" + q.Encode()
	if err := w.client.GetJSON(ctx, u, &resp); err != nil {
		return "", err
	}
	for _, page := range resp.Query.Pages {
		for _, ll := range page.Langlinks {
			if ll.Star != "" {
				return ll.Star, nil
			}
			if ll.Title != "" {
				return ll.Title, nil
			}
		}
	}
	return "", nil
}

// enrich builds the summary for one person's page URL. Enrichment is
// best-effort: every failure path degrades to OK=false with the original
// link, never to an error.
func (w *wikiClient) enrich(ctx context.Context, pageURL string) WikiSummary {
	out := WikiSummary{Link: pageURL}
	if pageURL == "" || !strings.Contains(pageURL, "wikipedia.org/wiki/") {
		return out
	}
	title := titleFromURL(pageURL)
	if title == "" {
		return out
	}

	// The same title often exists in the target language directly.
	if s, err := w.summary(ctx, w.lang, title); err == nil {
		return fromREST(s, pageURL)
	}

	u, err := url.Parse(pageURL)
	if err != nil || !strings.HasPrefix(strings.ToLower(u.Host), "en.") {
		return out
	}

	target, err := w.langlinkTitle(ctx, title)
	if err != nil || target == "" {
		return out
	}
	if s, err := w.summary(ctx, w.lang, target); err == nil {
		return fromREST(s, pageURL)
	}
	// The page exists but its summary was unavailable; at least link to it.
	out.Link = w.base(w.lang) + "/wiki/" + url.PathEscape(target)
	return out
}

func fromREST(s restSummary, fallbackLink string) WikiSummary {
	link := s.ContentURLs.Desktop.Page
	if link == "" {
		link = fallbackLink
	}
	return WikiSummary{
		OK:        true,
		Link:      link,
		Thumbnail: s.Thumbnail.Source,
		Extract:   s.Extract,
	}
}
