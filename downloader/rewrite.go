package downloader

import (
	"bytes"
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var absoluteURL = regexp.MustCompile(`^https?://`)

// linkAttrs maps a tag name to the attribute holding its resource link
var linkAttrs = map[string]string{
	"img":    "src",
	"script": "src",
	"link":   "href",
}

// IsMarkup reports whether a file name denotes an HTML document
func IsMarkup(fileName string) bool {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".htm", ".html":
		return true
	}
	return false
}

// RewriteStats reports what RewriteRelativeLinks changed
type RewriteStats struct {
	Rewritten int
	// Skipped holds relative link values that could not be parsed as URLs
	Skipped []string
}

// RewriteRelativeLinks resolves every img/script src and link href that is
// not already an http(s) URL against base, and returns the rendered document.
// doc must already be UTF-8; any meta charset declaration is rewritten to match.
func RewriteRelativeLinks(doc []byte, base string) ([]byte, RewriteStats, error) {
	var stats RewriteStats
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, stats, fmt.Errorf("parse base url %q: %w", base, err)
	}

	root, err := html.Parse(bytes.NewReader(doc))
	if err != nil {
		return nil, stats, fmt.Errorf("parse html: %w", err)
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if n.Data == "meta" {
				declareUTF8(n)
			}
			if key, ok := linkAttrs[n.Data]; ok {
				for i, attr := range n.Attr {
					if attr.Key != key || attr.Val == "" || absoluteURL.MatchString(attr.Val) {
						continue
					}
					ref, err := url.Parse(attr.Val)
					if err != nil {
						stats.Skipped = append(stats.Skipped, attr.Val)
						continue
					}
					n.Attr[i].Val = baseURL.ResolveReference(ref).String()
					stats.Rewritten++
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return nil, stats, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), stats, nil
}

// declareUTF8 points a <meta charset> or http-equiv Content-Type declaration at utf-8
func declareUTF8(n *html.Node) {
	contentType := false
	for _, attr := range n.Attr {
		if attr.Key == "http-equiv" && strings.EqualFold(attr.Val, "content-type") {
			contentType = true
		}
	}
	for i, attr := range n.Attr {
		switch {
		case attr.Key == "charset":
			n.Attr[i].Val = "utf-8"
		case attr.Key == "content" && contentType:
			n.Attr[i].Val = "text/html; charset=utf-8"
		}
	}
}
