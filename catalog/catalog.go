// Package catalog queries the media catalog partner for movie and series
// recommendations with Dutch streaming availability. The partner speaks
// the TMDB v3 wire format; the API key travels as a query parameter.
package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/subthread/companion/gateway"
	"github.com/subthread/companion/logging"
)

// Options configures a Client.
type Options struct {
	// Language selects localized titles and overviews.
	Language string
	// Region scopes search results and streaming providers.
	Region string
	// MaxResults caps how many titles one recommendation renders.
	MaxResults int
	Logger     logging.Logger
}

// Client is the recommendation view over the catalog partner.
type Client struct {
	gw         *gateway.Client
	apiKey     string
	language   string
	region     string
	maxResults int
	logger     logging.Logger
}

// NewClient wraps a gateway client scoped to the catalog partner.
func NewClient(gw *gateway.Client, apiKey string, optFns ...func(o *Options)) *Client {
	opts := Options{
		Language:   "nl-NL",
		Region:     "NL",
		MaxResults: 5,
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Client{
		gw:         gw,
		apiKey:     apiKey,
		language:   opts.Language,
		region:     opts.Region,
		maxResults: opts.MaxResults,
		logger:     opts.Logger,
	}
}

type item struct {
	kind      string
	id        int64
	title     string
	year      string
	rating    float64
	overview  string
	streaming []string
}

// Recommend searches the catalog for query and renders the top matches
// with their Dutch streaming platforms. mediaType is "movie", "tv" or
// "both". A partner failure returns an error so the caller can fall back
// to web search.
func (c *Client) Recommend(ctx context.Context, query, mediaType string) (string, error) {
	searchType := mediaType
	if mediaType == "both" || mediaType == "" {
		searchType = "multi"
	}

	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("query", query)
	params.Set("language", c.language)
	params.Set("region", c.region)
	params.Set("include_adult", "false")

	data, err := c.gw.Do(ctx, http.MethodGet, "/search/"+searchType+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("catalog search: %w", err)
	}

	items := c.collect(gjson.GetBytes(data, "results").Array(), mediaType)
	if len(items) == 0 {
		return fmt.Sprintf("No results found for '%s'. Try a different search term.", query), nil
	}

	// Provider lookups are independent per title; fetch them in parallel
	// and keep the search order.
	var wg sync.WaitGroup
	for n := range items {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			items[n].streaming = c.providers(ctx, items[n].kind, items[n].id)
		}(n)
	}
	wg.Wait()

	return render(query, items), nil
}

// collect turns raw search results into items, skipping anything that is
// neither a movie nor a series (multi search also returns people).
func (c *Client) collect(results []gjson.Result, mediaType string) []item {
	fallbackKind := mediaType
	if mediaType == "both" || mediaType == "" {
		fallbackKind = "movie"
	}

	items := make([]item, 0, c.maxResults)
	for _, res := range results {
		if len(items) == c.maxResults {
			break
		}
		kind := res.Get("media_type").String()
		if kind == "" {
			kind = fallbackKind
		}
		if kind != "movie" && kind != "tv" {
			continue
		}
		title := res.Get("title").String()
		if title == "" {
			title = res.Get("name").String()
		}
		date := res.Get("release_date").String()
		if date == "" {
			date = res.Get("first_air_date").String()
		}
		year := date
		if len(year) > 4 {
			year = year[:4]
		}
		overview := res.Get("overview").String()
		if len(overview) > 200 {
			overview = overview[:200]
		}
		items = append(items, item{
			kind:     kind,
			id:       res.Get("id").Int(),
			title:    title,
			year:     year,
			rating:   res.Get("vote_average").Float(),
			overview: overview,
		})
	}
	return items
}

// providers fetches the streaming platforms carrying one title in the
// configured region. Lookup failures degrade to "not found on streaming"
// rather than failing the whole recommendation.
func (c *Client) providers(ctx context.Context, kind string, id int64) []string {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	path := fmt.Sprintf("/%s/%d/watch/providers?%s", kind, id, params.Encode())

	data, err := c.gw.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		c.logger.Debug("provider lookup failed", "kind", kind, "id", id, "error", err.Error())
		return nil
	}

	regional := gjson.GetBytes(data, "results."+c.region)
	var platforms []string
	for _, p := range regional.Get("flatrate").Array() {
		platforms = append(platforms, p.Get("provider_name").String())
	}
	for _, p := range regional.Get("free").Array() {
		platforms = append(platforms, p.Get("provider_name").String()+" (gratis)")
	}
	return platforms
}

func render(query string, items []item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Entertainment recommendations for '%s' (Netherlands):\n\n", query)
	for n, it := range items {
		label := "Film"
		if it.kind == "tv" {
			label = "Serie"
		}
		score := "Geen score"
		if it.rating > 0 {
			score = fmt.Sprintf("%.1f/10", it.rating)
		}
		platforms := it.streaming
		if len(platforms) == 0 {
			platforms = []string{"Niet gevonden op streaming"}
		}

		fmt.Fprintf(&b, "%d. %s (%s) - %s\n", n+1, it.title, it.year, label)
		fmt.Fprintf(&b, "   Score: %s\n", score)
		fmt.Fprintf(&b, "   Beschikbaar op: %s\n", strings.Join(platforms, ", "))
		if it.overview != "" {
			fmt.Fprintf(&b, "   %s\n", it.overview)
		}
		b.WriteString("\n")
	}
	return b.String()
}
