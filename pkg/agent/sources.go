package agent

import "github.com/papercomputeco/parley/pkg/llm"

// Sources lists what contributed to a turn: the citations of each
// successful tool result, or the tool's name when it cited nothing. Order
// is first use; duplicates and failed results are dropped. The result is
// never nil.
func Sources(results []llm.ToolResult) []string {
	sources := []string{}
	seen := make(map[string]struct{})
	add := func(s string) {
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		sources = append(sources, s)
	}

	for _, r := range results {
		if r.IsError {
			continue
		}
		if len(r.Citations) == 0 {
			add(r.ToolName)
			continue
		}
		for _, c := range r.Citations {
			add(c)
		}
	}
	return sources
}
