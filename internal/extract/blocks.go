package extract

import (
	"bufio"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// TextBlocks splits plain regulation text on blank lines. Each block keeps
// its internal line breaks.
func TextBlocks(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var blocks []string
	var current []string

	flush := func() {
		if len(current) > 0 {
			blocks = append(blocks, strings.Join(current, "\n"))
			current = nil
		}
	}

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()

	return blocks
}

// blockElements start a new regulation block when found in an HTML document
var blockElements = map[string]bool{
	"p": true, "li": true, "section": true, "article": true, "blockquote": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// headingElements open a block that absorbs the following paragraphs
var headingElements = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// HTMLBlocks extracts regulation blocks from an HTML document. A heading and
// the paragraphs after it form one block whose first line is the heading;
// standalone paragraphs and list items are blocks of their own.
func HTMLBlocks(r io.Reader) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	root := findFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && (n.Data == "main" || n.Data == "body")
	})
	if root == nil {
		root = doc
	}

	var blocks []string
	var heading string
	var body []string

	flush := func() {
		switch {
		case heading != "":
			blocks = append(blocks, strings.Join(append([]string{heading}, body...), "\n"))
		case len(body) > 0:
			blocks = append(blocks, body...)
		}
		heading, body = "", nil
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "nav", "footer":
				return
			}

			if blockElements[n.Data] && !hasBlockChild(n) {
				text := CollapseWhitespace(nodeText(n))
				if text == "" {
					return
				}
				if headingElements[n.Data] {
					flush()
					heading = text
					return
				}
				if heading == "" {
					blocks = append(blocks, text)
					return
				}
				body = append(body, text)
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(root)
	flush()

	return blocks, nil
}

// nodeText concatenates all visible text below n
func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "noscript":
			return ""
		case "br":
			return " "
		}
	}

	var buf strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		buf.WriteString(nodeText(c))
		buf.WriteString(" ")
	}
	return buf.String()
}

// hasBlockChild reports whether a block element nests further block elements
func hasBlockChild(n *html.Node) bool {
	return findFirst(n, func(c *html.Node) bool {
		return c != n && c.Type == html.ElementNode && blockElements[c.Data]
	}) != nil
}

// findFirst finds the first node matching a predicate in document order
func findFirst(n *html.Node, predicate func(*html.Node) bool) *html.Node {
	var result *html.Node

	var walk func(*html.Node) bool
	walk = func(node *html.Node) bool {
		if predicate(node) {
			result = node
			return true
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}

	walk(n)
	return result
}
