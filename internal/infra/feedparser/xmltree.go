package feedparser

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// Node is one element of a parsed XML document.
//
// Names are local names: namespace prefixes are dropped, so <dc:date> and
// <date> both have Name "date". All lookups compare names case-insensitively.
// Space keeps the namespace (URI, or the bare prefix when it was never
// declared) for the few lookups that must tell <link> from <atom:link>.
type Node struct {
	Name     string
	Space    string
	Attrs    []xml.Attr
	Children []*Node

	// text is the character data directly inside this element.
	text strings.Builder
}

// ParseTree parses data into an element tree and returns the root element.
//
// The decoder is lenient: HTML entities are accepted, unknown or malformed
// entities are left as-is, mismatched end tags are tolerated, and the document's declared charset
// (Shift_JIS, EUC-JP, ...) is converted to UTF-8. Input that is not a single
// well-nested document is still a syntax error.
func ParseTree(data []byte) (*Node, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	// HTMLAutoClose is not used: it lists "link", which would break RSS <link>.
	dec.Strict = false
	dec.Entity = xml.HTMLEntity
	dec.CharsetReader = charset.NewReaderLabel

	var (
		root  *Node
		stack []*Node
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Name: localName(t.Name.Local), Space: elementSpace(t.Name), Attrs: t.Attr}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("multiple root elements: <%s> after <%s>", n.Name, root.Name)
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		}
	}

	if root == nil {
		return nil, errors.New("no root element")
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("unexpected EOF inside <%s>", stack[len(stack)-1].Name)
	}
	return root, nil
}

// localName strips any prefix the decoder left in place (undeclared prefixes
// in non-strict mode).
func localName(name string) string {
	if i := strings.LastIndexByte(name, ':'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// elementSpace returns the namespace of name, falling back to a prefix the
// decoder left inside Local.
func elementSpace(name xml.Name) string {
	if name.Space != "" {
		return name.Space
	}
	if i := strings.LastIndexByte(name.Local, ':'); i >= 0 {
		return name.Local[:i]
	}
	return ""
}

// Is reports whether n's local name equals name, ignoring case.
func (n *Node) Is(name string) bool {
	return n != nil && strings.EqualFold(n.Name, name)
}

// Text returns the trimmed character data directly inside n.
func (n *Node) Text() string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.text.String())
}

// InnerText returns all character data inside n and its descendants, trimmed.
func (n *Node) InnerText() string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	n.writeText(&b)
	return strings.TrimSpace(b.String())
}

func (n *Node) writeText(b *strings.Builder) {
	b.WriteString(n.text.String())
	for _, c := range n.Children {
		c.writeText(b)
	}
}

// Attr returns the trimmed value of the attribute with the given local name,
// ignoring case and namespace prefix.
func (n *Node) Attr(name string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attrs {
		if strings.EqualFold(localName(a.Name.Local), name) {
			return strings.TrimSpace(a.Value)
		}
	}
	return ""
}

// ChildrenNamed returns the direct children called name.
func (n *Node) ChildrenNamed(name string) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, c := range n.Children {
		if c.Is(name) {
			out = append(out, c)
		}
	}
	return out
}

// Find returns the first descendant of n (depth-first, document order) called
// name, or nil. n itself is not considered.
func (n *Node) Find(name string) *Node {
	return n.FindFunc(func(c *Node) bool { return c.Is(name) })
}

// FindFunc returns the first descendant of n matching pred, or nil.
func (n *Node) FindFunc(pred func(*Node) bool) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if pred(c) {
			return c
		}
		if found := c.FindFunc(pred); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every descendant of n called name, in document order.
// Matches nested inside other matches are included.
func (n *Node) FindAll(name string) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	var walk func(*Node)
	walk = func(p *Node) {
		for _, c := range p.Children {
			if c.Is(name) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

// FindText returns the text of the first descendant called name whose text
// is non-empty.
func (n *Node) FindText(name string) string {
	found := n.FindFunc(func(c *Node) bool {
		return c.Is(name) && c.InnerText() != ""
	})
	return found.InnerText()
}
