package tool

import (
	"context"
	"time"

	"github.com/subthread/companion/core"
)

type searchArgs struct {
	Query string `json:"query" description:"The search query to look up information for. Be specific and concise."`
}

// NewWebSearch returns the web search tool. Telephony callers get the raw
// JSON result spoken back through the engine; app callers get it relayed
// to their device over the web_search RPC so the app can render sources.
func NewWebSearch(deps *Deps) *FunctionTool {
	return NewFunctionToolFromStruct(
		"web_search",
		"Search the web for information. Use this tool when the user asks for information that requires up-to-date knowledge.",
		searchArgs{},
		func(ctx context.Context, args map[string]any) (any, error) {
			query := asString(args["query"])

			searchCtx, cancel := context.WithTimeout(ctx, deps.searchTimeout())
			defer cancel()

			start := time.Now()
			result, err := deps.Searcher.Search(searchCtx, query)
			if err != nil {
				deps.logger().Warn("web search failed", "query", query, "error", err.Error())
				return "Error searching the web", nil
			}
			deps.logger().Debug("web search completed",
				"query", query, "duration_ms", time.Since(start).Milliseconds())

			if core.IsTelephonyIdentity(deps.Caller.RawIdentity) {
				return result, nil
			}

			relayed, err := deps.performRPC(ctx, "web_search", result, deps.searchTimeout())
			if err != nil {
				deps.logger().Warn("web search relay failed", "error", err.Error())
				return "Error searching the web", nil
			}
			return relayed, nil
		},
		func(o *FunctionToolOptions) { o.Logger = deps.logger() },
	)
}
