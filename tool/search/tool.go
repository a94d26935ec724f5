package search

import (
	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/tool"
)

// ToolName is the name under which the search capability is exposed to models.
const ToolName = "web_search"

// MaxCount is the largest result count the Bing v7 API accepts.
const MaxCount = 50

type toolArgs struct {
	Query string `json:"query" description:"Search terms"`
	Count int    `json:"count,omitempty" description:"Number of results (default 3, at most 50)"`
}

// ToolOptions configures the web_search tool.
type ToolOptions struct {
	// Count is used when the model does not ask for a number of results.
	Count int
}

// NewTool exposes s to agents as the web_search tool. Results come back as
// "Title: ..., Snippet: ..., URL: ..." lines; API failures become tool errors
// that the agent reports in its message.
func NewTool(s Searcher, optFns ...func(o *ToolOptions)) tool.Tool {
	opts := ToolOptions{Count: DefaultCount}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Count <= 0 {
		opts.Count = DefaultCount
	}

	return tool.NewFunctionToolFromStruct(ToolName, "Search the web and return the top results with title, snippet and URL.", toolArgs{},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			query, _ := args["query"].(string)
			if query == "" {
				return nil, tool.NewToolError(ToolName, "query must not be empty", tool.CodeBadInput)
			}

			count := opts.Count
			if n, ok := args["count"].(float64); ok && n > 0 {
				count = min(int(n), MaxCount)
			}

			results, err := s.Search(tc.Context(), query, count)
			if err != nil {
				return nil, err
			}

			if len(results) == 0 {
				return "No results found.", nil
			}

			return Format(results), nil
		})
}
