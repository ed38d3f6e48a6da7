package tools

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Tool names with behavior of their own.
const (
	BinsTool  = "w_bins"
	PdistTool = "w_pdist"
	TraceTool = "w_trace"
	PlotTool  = "plothist"
)

// DefaultNames lists every WESTPA tool the registry knows about.
var DefaultNames = []string{
	"w_bins", "w_truncate", "w_fork", "w_assign", "w_trace", "w_fluxanl",
	"w_ipa", "w_pdist", "w_succ", "w_crawl", "w_direct", "w_select",
	"w_states", "w_eddist", "w_ntop", "w_multi_west", "plothist", "ploterr",
}

// DisplayName title-cases each underscore-separated part of a tool name:
// "w_multi_west" becomes "W_Multi_West".
func DisplayName(name string) string {
	caser := cases.Title(language.Und)
	parts := strings.Split(name, "_")
	for i, p := range parts {
		parts[i] = caser.String(p)
	}
	return strings.Join(parts, "_")
}
