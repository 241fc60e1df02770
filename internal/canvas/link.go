package canvas

import "github.com/tomnomnom/linkheader"

// nextLink extracts the rel="next" target from a Link header.
func nextLink(header string) string {
	for _, link := range linkheader.Parse(header).FilterByRel("next") {
		return link.URL
	}
	return ""
}
