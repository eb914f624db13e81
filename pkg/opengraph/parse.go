package opengraph

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/lepinkainen/entity-forge/pkg/metacache"
	"github.com/lepinkainen/entity-forge/pkg/urlutils"
)

// extractTags walks the document collecting OpenGraph meta tags and the
// plain <title> as a fallback.
func extractTags(n *html.Node, md metacache.Metadata) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "meta":
			processMetaTag(n, md)
		case "title":
			if md[KeyTitle] == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				md[KeyTitle] = strings.TrimSpace(n.FirstChild.Data)
			}
		case "link":
			processLinkTag(n, md)
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractTags(c, md)
	}
}

func processMetaTag(n *html.Node, md metacache.Metadata) {
	var property, content, name string
	for _, attr := range n.Attr {
		switch attr.Key {
		case "property":
			property = attr.Val
		case "content":
			content = attr.Val
		case "name":
			name = attr.Val
		}
	}

	switch property {
	case "og:title":
		setIfEmpty(md, KeyTitle, content)
	case "og:description":
		setIfEmpty(md, KeyDescription, content)
	case "og:image":
		setIfEmpty(md, KeyImage, content)
	case "og:site_name":
		setIfEmpty(md, KeySiteName, content)
	case "og:url":
		md[KeyCanonicalURL] = content
	}

	// Twitter-card and plain meta tags fill remaining gaps.
	switch name {
	case "description", "twitter:description":
		setIfEmpty(md, KeyDescription, content)
	case "twitter:image":
		setIfEmpty(md, KeyImage, content)
	case "twitter:title":
		setIfEmpty(md, KeyTitle, content)
	}
}

func processLinkTag(n *html.Node, md metacache.Metadata) {
	var rel, href string
	for _, attr := range n.Attr {
		switch attr.Key {
		case "rel":
			rel = attr.Val
		case "href":
			href = attr.Val
		}
	}
	if rel == "canonical" && href != "" {
		md[KeyCanonicalURL] = href
	}
}

func setIfEmpty(md metacache.Metadata, key, value string) {
	if md[key] == "" {
		md[key] = value
	}
}

// applyFallbacks fills missing fields from page content and the URL.
func (f *Fetcher) applyFallbacks(md metacache.Metadata, htmlContent, targetURL string) {
	if md[KeyDescription] == "" {
		md[KeyDescription] = firstParagraph(htmlContent)
	}
	if md[KeySiteName] == "" {
		if u, err := url.Parse(targetURL); err == nil {
			md[KeySiteName] = u.Host
		}
	}
}

// firstParagraph extracts the first substantial <p> text, used when a
// page carries no description tags at all.
func firstParagraph(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return ""
	}

	var findFirstP func(*html.Node) string
	findFirstP = func(n *html.Node) string {
		if n.Type == html.ElementNode && n.Data == "p" {
			var text strings.Builder
			var extractText func(*html.Node)
			extractText = func(node *html.Node) {
				if node.Type == html.TextNode {
					text.WriteString(node.Data)
				}
				for c := node.FirstChild; c != nil; c = c.NextSibling {
					extractText(c)
				}
			}
			extractText(n)

			if result := strings.TrimSpace(text.String()); len(result) > 20 {
				return result
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if result := findFirstP(c); result != "" {
				return result
			}
		}
		return ""
	}

	return findFirstP(doc)
}

// cleanup normalizes whitespace, strips control characters and bounds
// field lengths before the metadata is cached.
func cleanup(md metacache.Metadata) {
	for _, key := range []string{KeyTitle, KeyDescription, KeySiteName} {
		v := strings.TrimSpace(md[key])
		v = strings.ReplaceAll(v, "\x00", "")
		md[key] = v
	}

	if len(md[KeyDescription]) > 500 {
		md[KeyDescription] = md[KeyDescription][:497] + "..."
	}
	if len(md[KeyTitle]) > 200 {
		md[KeyTitle] = md[KeyTitle][:197] + "..."
	}

	if md[KeyImage] != "" && !urlutils.IsValidURL(md[KeyImage]) {
		delete(md, KeyImage)
	}

	// Drop empty keys so the cached map stays sparse.
	for key, v := range md {
		if v == "" {
			delete(md, key)
		}
	}
}
