// Package feedparser extracts (title, link, date) entries from RSS 1.0/RDF,
// RSS 2.0 and Atom documents.
//
// Matching is syntactic: elements are found by local tag name, ignoring
// namespace prefixes and case, instead of validating each dialect's schema.
// Publishers mix dialects and namespaces freely, and this keeps such feeds
// readable.
package feedparser

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"mext-feed/internal/domain/entity"
)

// Dialect labels.
const (
	DialectRDF  = "rdf"
	DialectRSS  = "rss"
	DialectAtom = "atom"
)

var (
	// ErrMalformedXML indicates that the document is not parseable XML.
	ErrMalformedXML = errors.New("malformed XML")

	// ErrUnrecognizedFeed indicates well-formed XML that is neither RSS nor Atom.
	ErrUnrecognizedFeed = errors.New("unrecognized feed structure")
)

// Result is the outcome of parsing one feed document.
type Result = entity.ParsedFeed

// Parser adapts Parse to the fetch service's FeedParser interface.
type Parser struct{}

// Parse implements fetch.FeedParser.
func (Parser) Parse(data []byte) (*entity.ParsedFeed, error) {
	return Parse(data)
}

// Parse extracts entries from a feed document.
//
// A document containing a channel element is read RSS-style (every item in
// the document is an entry, which covers RDF where items are siblings of the
// channel). Otherwise it is read Atom-style from its entry elements.
func Parse(data []byte) (*Result, error) {
	root, err := ParseTree(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedXML, err)
	}

	detected := gofeed.DetectFeedType(bytes.NewReader(data))

	var channel *Node
	if root.Is("channel") {
		channel = root
	} else {
		channel = root.Find("channel")
	}

	switch {
	case channel != nil:
		return &Result{
			Dialect: rssDialect(root),
			Title:   normalizeTitle(channel.FindText("title")),
			Items:   parseItems(root),
		}, nil
	case root.Is("feed") || root.Find("entry") != nil || detected == gofeed.FeedTypeAtom:
		return &Result{
			Dialect: DialectAtom,
			Title:   normalizeTitle(firstChildText(root, "title")),
			Items:   parseEntries(root),
		}, nil
	case detected == gofeed.FeedTypeRSS:
		// rss/rdf root without a channel element
		return &Result{
			Dialect: rssDialect(root),
			Items:   parseItems(root),
		}, nil
	default:
		return nil, fmt.Errorf("%w: root element <%s>", ErrUnrecognizedFeed, root.Name)
	}
}

func rssDialect(root *Node) string {
	if root.Is("RDF") {
		return DialectRDF
	}
	return DialectRSS
}

func parseItems(root *Node) []entity.RawFeedItem {
	nodes := root.FindAll("item")
	items := make([]entity.RawFeedItem, 0, len(nodes))
	for _, item := range nodes {
		items = append(items, entity.RawFeedItem{
			Title:             normalizeTitle(item.FindText("title")),
			Link:              itemLink(item),
			PublishedDateText: firstText(item, "pubDate", "date", "updated"),
		})
	}
	return items
}

// itemLink prefers direct <link> children in the item's own namespace (text,
// then href), so <atom:link rel="self"> next to a plain <link> never wins.
// Then any direct link child, then any link element in the item.
func itemLink(item *Node) string {
	links := item.ChildrenNamed("link")
	for _, l := range links {
		if l.Space != item.Space {
			continue
		}
		if v := linkValue(l); v != "" {
			return v
		}
	}
	for _, l := range links {
		if v := linkValue(l); v != "" {
			return v
		}
	}
	found := item.FindFunc(func(n *Node) bool {
		return n.Is("link") && linkValue(n) != ""
	})
	return linkValue(found)
}

func linkValue(n *Node) string {
	if n == nil {
		return ""
	}
	if t := n.InnerText(); t != "" {
		return t
	}
	return n.Attr("href")
}

func parseEntries(root *Node) []entity.RawFeedItem {
	nodes := root.FindAll("entry")
	items := make([]entity.RawFeedItem, 0, len(nodes))
	for _, entry := range nodes {
		items = append(items, entity.RawFeedItem{
			Title:             normalizeTitle(entry.FindText("title")),
			Link:              entryLink(entry),
			PublishedDateText: firstText(entry, "updated", "published"),
		})
	}
	return items
}

// entryLink returns the first href whose rel is empty or "alternate",
// falling back to the first href-bearing link of any rel.
func entryLink(entry *Node) string {
	var fallback string
	for _, l := range entry.FindAll("link") {
		href := l.Attr("href")
		if href == "" {
			continue
		}
		rel := l.Attr("rel")
		if rel == "" || rel == "alternate" {
			return href
		}
		if fallback == "" {
			fallback = href
		}
	}
	return fallback
}

// firstText returns the text of the first name (in preference order) found
// with non-empty text in n's subtree.
func firstText(n *Node, names ...string) string {
	for _, name := range names {
		if t := n.FindText(name); t != "" {
			return t
		}
	}
	return ""
}

func firstChildText(n *Node, name string) string {
	for _, c := range n.ChildrenNamed(name) {
		if t := c.InnerText(); t != "" {
			return t
		}
	}
	return ""
}

// normalizeTitle reduces markup to text and collapses whitespace runs.
func normalizeTitle(s string) string {
	if strings.Contains(s, "<") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			s = doc.Text()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}
