package sentiment

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// GroundingMetadata is one provider-specific shape of retrieval citations.
// The concrete variants are WebChunks, SearchQueryResults, CitationSources
// and URLCitations.
type GroundingMetadata interface {
	citations() []DataSource
}

// WebChunk is a web grounding chunk as returned by the Gemini API.
type WebChunk struct {
	URI    string `json:"uri"`
	Title  string `json:"title"`
	Domain string `json:"domain,omitempty"`
}

// WebChunks corresponds to groundingChunks[].web.
type WebChunks []WebChunk

func (w WebChunks) citations() []DataSource {
	out := make([]DataSource, 0, len(w))
	for _, c := range w {
		out = append(out, DataSource{Title: c.Title, URI: c.URI})
	}
	return out
}

// SearchResult is a single hit inside a search query grounding entry.
type SearchResult struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// SearchQuery is a search issued by the model together with its results.
type SearchQuery struct {
	Query   string         `json:"query,omitempty"`
	Results []SearchResult `json:"results"`
}

// SearchQueryResults corresponds to webSearchQueries[].results[].
type SearchQueryResults []SearchQuery

func (s SearchQueryResults) citations() []DataSource {
	var out []DataSource
	for _, q := range s {
		for _, r := range q.Results {
			out = append(out, DataSource{Title: r.Title, URI: r.URI})
		}
	}
	return out
}

// CitationSource is a URI-only citation. Title is optional.
type CitationSource struct {
	URI        string `json:"uri"`
	Title      string `json:"title,omitempty"`
	StartIndex int    `json:"startIndex,omitempty"`
	EndIndex   int    `json:"endIndex,omitempty"`
}

// CitationSources corresponds to citationSources[] and citationMetadata.citations[].
type CitationSources []CitationSource

func (c CitationSources) citations() []DataSource {
	out := make([]DataSource, 0, len(c))
	for _, s := range c {
		out = append(out, DataSource{Title: s.Title, URI: s.URI})
	}
	return out
}

// URLCitation is a url/title pair attached to generated text.
type URLCitation struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// URLCitations corresponds to url_citation annotations and web search
// result citations.
type URLCitations []URLCitation

func (u URLCitations) citations() []DataSource {
	out := make([]DataSource, 0, len(u))
	for _, c := range u {
		out = append(out, DataSource{Title: c.Title, URI: c.URL})
	}
	return out
}

// MergeGrounding normalizes every variant into DataSources, drops entries
// without a URI, and keeps one entry per URI. The first title seen for a URI
// wins. Missing titles fall back to the URI host, then to the URI itself.
func MergeGrounding(variants ...GroundingMetadata) []DataSource {
	out := []DataSource{}
	seen := make(map[string]struct{})
	for _, variant := range variants {
		if variant == nil {
			continue
		}
		for _, src := range variant.citations() {
			uri := strings.TrimSpace(src.URI)
			if uri == "" {
				continue
			}
			if _, ok := seen[uri]; ok {
				continue
			}
			seen[uri] = struct{}{}
			title := strings.TrimSpace(src.Title)
			if title == "" {
				title = defaultTitle(uri)
			}
			out = append(out, DataSource{Title: title, URI: uri})
		}
	}
	return out
}

func defaultTitle(uri string) string {
	parsed, err := url.Parse(uri)
	if err != nil {
		return uri
	}
	host := strings.ToLower(parsed.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return uri
	}
	return host
}

// ParseGroundingJSON decodes an untyped grounding payload, as stored by a
// client or copied from a provider response, into variants. Key spelling is
// matched case-insensitively with underscores ignored, so groundingChunks and
// grounding_chunks are equivalent. A top-level array is treated as a list of
// such objects. Unknown keys are ignored.
func ParseGroundingJSON(data []byte) ([]GroundingMetadata, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	var list []json.RawMessage
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal([]byte(trimmed), &list); err != nil {
			return nil, WrapError(ErrCodeInvalidInput, "invalid grounding JSON", err)
		}
	} else {
		list = []json.RawMessage{json.RawMessage(trimmed)}
	}

	var out []GroundingMetadata
	for _, item := range list {
		variants, err := parseGroundingObject(item)
		if err != nil {
			return nil, err
		}
		out = append(out, variants...)
	}
	return out, nil
}

func parseGroundingObject(data json.RawMessage) ([]GroundingMetadata, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, WrapError(ErrCodeInvalidInput, "invalid grounding JSON", err)
	}
	fields := make(map[string]json.RawMessage, len(raw))
	for k, v := range raw {
		fields[normalizeKey(k)] = v
	}

	var out []GroundingMetadata
	if v, ok := fields["groundingmetadata"]; ok {
		nested, err := parseGroundingObject(v)
		if err != nil {
			return nil, err
		}
		out = append(out, nested...)
	}
	if v, ok := fields["groundingchunks"]; ok {
		var chunks []struct {
			Web *WebChunk `json:"web"`
		}
		if err := json.Unmarshal(v, &chunks); err != nil {
			return nil, groundingFieldError("groundingChunks", err)
		}
		web := WebChunks{}
		for _, c := range chunks {
			if c.Web != nil {
				web = append(web, *c.Web)
			}
		}
		out = append(out, web)
	}
	if v, ok := fields["websearchqueries"]; ok {
		// Current APIs return plain query strings here; only the legacy
		// object form carries results.
		var queries SearchQueryResults
		if err := json.Unmarshal(v, &queries); err == nil {
			out = append(out, queries)
		} else {
			var plain []string
			if err := json.Unmarshal(v, &plain); err != nil {
				return nil, groundingFieldError("webSearchQueries", err)
			}
		}
	}
	for _, key := range []string{"citationsources", "citations"} {
		v, ok := fields[key]
		if !ok {
			continue
		}
		var sources CitationSources
		if err := json.Unmarshal(v, &sources); err != nil {
			return nil, groundingFieldError(key, err)
		}
		out = append(out, sources)
	}
	if v, ok := fields["citationmetadata"]; ok {
		nested, err := parseGroundingObject(v)
		if err != nil {
			return nil, err
		}
		out = append(out, nested...)
	}
	if v, ok := fields["annotations"]; ok {
		var annotations []struct {
			URLCitation *URLCitation `json:"url_citation"`
			URL         string       `json:"url"`
			Title       string       `json:"title"`
		}
		if err := json.Unmarshal(v, &annotations); err != nil {
			return nil, groundingFieldError("annotations", err)
		}
		cites := URLCitations{}
		for _, a := range annotations {
			switch {
			case a.URLCitation != nil:
				cites = append(cites, *a.URLCitation)
			case a.URL != "":
				cites = append(cites, URLCitation{URL: a.URL, Title: a.Title})
			}
		}
		out = append(out, cites)
	}
	return out, nil
}

func normalizeKey(k string) string {
	return strings.ToLower(strings.ReplaceAll(k, "_", ""))
}

func groundingFieldError(field string, err error) *Error {
	return WrapError(ErrCodeInvalidInput, fmt.Sprintf("invalid grounding field %s", field), err)
}
