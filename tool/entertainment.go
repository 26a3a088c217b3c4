package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
)

type recommendationArgs struct {
	Query     string `json:"query" description:"What to search for. Can be a title, topic, or description like 'Dutch thriller' or 'nature documentary'."`
	Genre     string `json:"genre,omitempty" description:"Optional genre filter like 'drama', 'comedy', 'documentary', 'thriller', 'romance', 'animation'."`
	MediaType string `json:"media_type,omitempty" description:"Type of content: 'movie', 'tv', or 'both'."`
}

// NewMovieRecommendation returns the entertainment recommendation tool.
// The catalog partner answers with titles and Dutch streaming platforms;
// when the catalog is unavailable the tool degrades to a web search and
// finally to an apology.
func NewMovieRecommendation(deps *Deps) *FunctionTool {
	return NewFunctionToolFromStruct(
		"movie_recommendation",
		"Search for movies and TV shows available on streaming platforms in the Netherlands. "+
			"Use this tool when the user asks for something to watch, mentions movies or series "+
			"they like, or wants entertainment recommendations.",
		recommendationArgs{},
		func(ctx context.Context, args map[string]any) (any, error) {
			query := asString(args["query"])
			genre := asString(args["genre"])
			mediaType := asString(args["media_type"])
			if mediaType == "" {
				mediaType = "both"
			}

			if deps.Catalog != nil {
				catalogCtx, cancel := context.WithTimeout(ctx, deps.rpcTimeout())
				start := time.Now()
				result, err := deps.Catalog.Recommend(catalogCtx, query, mediaType)
				cancel()
				if err == nil {
					deps.logger().Debug("catalog recommendation completed",
						"query", query, "duration_ms", time.Since(start).Milliseconds())
					return result, nil
				}
				deps.logger().Warn("catalog lookup failed, falling back to web search",
					"query", query, "error", err.Error())
			}

			searchCtx, cancel := context.WithTimeout(ctx, deps.searchTimeout())
			defer cancel()

			webQuery := fmt.Sprintf(
				"beste %s films series op Netflix Amazon Prime NPO Nederland 2026: %s",
				genre, query)
			raw, err := deps.Searcher.Search(searchCtx, webQuery)
			if err != nil {
				deps.logger().Warn("recommendation web fallback failed", "query", query, "error", err.Error())
				return "I couldn't find entertainment recommendations right now. Try asking me later!", nil
			}
			content := gjson.Get(raw, "choices.0.message.content").String()
			if content == "" {
				return "I couldn't find entertainment recommendations right now. Try asking me later!", nil
			}
			return "Entertainment search results (web):\n" + content, nil
		},
		func(o *FunctionToolOptions) { o.Logger = deps.logger() },
	)
}
