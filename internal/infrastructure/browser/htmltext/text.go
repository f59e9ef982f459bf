package htmltext

import (
	"regexp"
	"strings"
	"sync"

	"golang.org/x/net/html"
)

// Config controls which subtrees are dropped before text is collected.
type Config struct {
	TagsToRemove  []string
	MaxOutputSize int
}

var DefaultConfig = Config{
	TagsToRemove: []string{
		"script", "style", "noscript", "svg", "iframe",
		"link", "meta", "head", "title", "template",
	},
	MaxOutputSize: 64_000,
}

// VisibleText returns the whitespace-normalized text a user would read in
// the page body.
func VisibleText(rawHTML string, cfg *Config) string {
	if cfg == nil {
		cfg = &DefaultConfig
	}

	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}

	root := findBodyNode(doc)
	if root == nil {
		root = doc
	}

	var sb strings.Builder
	collectText(root, cfg, &sb)

	text := strings.Join(strings.Fields(sb.String()), " ")
	if cfg.MaxOutputSize > 0 && len(text) > cfg.MaxOutputSize {
		text = text[:cfg.MaxOutputSize]
	}
	return text
}

// ContainsAny reports the first phrase found in text, case-insensitively.
// A phrase only matches on word boundaries, so "0 results" does not match
// "10 results".
func ContainsAny(text string, phrases ...string) (string, bool) {
	for _, p := range phrases {
		if p == "" {
			continue
		}
		if phrasePattern(p).MatchString(text) {
			return p, true
		}
	}
	return "", false
}

var (
	patternsMu sync.Mutex
	patterns   = make(map[string]*regexp.Regexp)
)

func phrasePattern(phrase string) *regexp.Regexp {
	patternsMu.Lock()
	defer patternsMu.Unlock()
	if re, ok := patterns[phrase]; ok {
		return re
	}
	re := regexp.MustCompile(`(?i)(^|\W)` + regexp.QuoteMeta(phrase) + `($|\W)`)
	patterns[phrase] = re
	return re
}

func findBodyNode(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBodyNode(c); b != nil {
			return b
		}
	}
	return nil
}

func collectText(n *html.Node, cfg *Config, sb *strings.Builder) {
	switch n.Type {
	case html.CommentNode:
		return
	case html.TextNode:
		sb.WriteString(n.Data)
		sb.WriteByte(' ')
		return
	case html.ElementNode:
		if isOneOf(n.Data, cfg.TagsToRemove...) || isHidden(n) {
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, cfg, sb)
	}
}

func isHidden(n *html.Node) bool {
	for _, attr := range n.Attr {
		switch attr.Key {
		case "hidden":
			return true
		case "aria-hidden":
			if attr.Val == "true" {
				return true
			}
		case "style":
			style := strings.ReplaceAll(strings.ToLower(attr.Val), " ", "")
			if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
				return true
			}
		}
	}
	return false
}

func isOneOf(s string, candidates ...string) bool {
	for _, c := range candidates {
		if s == c {
			return true
		}
	}
	return false
}
