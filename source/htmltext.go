package source

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"

	"github.com/tsouza/questmd/model"
)

// MuPDF's HTML rendition positions each text block absolutely with inline
// styles (top/left in points, plus a line-height or font-size). The
// parser below turns those blocks into TextSpans. Block width is not part
// of the style, so it is estimated from the glyph count at roughly half
// an em per character; the binder's overlap threshold is applied against
// these estimated boxes.

var styleValuePattern = regexp.MustCompile(`([a-z-]+)\s*:\s*(-?[0-9.]+)pt`)

// defaultLineHeight is assumed when a block's style names no vertical
// metric at all.
const defaultLineHeight = 12.0

// ParseHTMLSpans extracts positioned text spans from a page's HTML text
// layer.
func ParseHTMLSpans(htmlText string) ([]TextSpan, error) {
	doc, err := html.Parse(strings.NewReader(htmlText))
	if err != nil {
		return nil, err
	}

	var spans []TextSpan
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "p" {
			if span, ok := spanFromBlock(n); ok {
				spans = append(spans, span)
			}
			return // text already collected; skip descendants
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return spans, nil
}

// spanFromBlock builds a TextSpan from one absolutely positioned <p>
func spanFromBlock(n *html.Node) (TextSpan, bool) {
	text := strings.TrimSpace(collectText(n))
	if text == "" {
		return TextSpan{}, false
	}
	text = norm.NFC.String(text)

	metrics := parseStyle(attrValue(n, "style"))
	top, hasTop := metrics["top"]
	left, hasLeft := metrics["left"]
	if !hasTop || !hasLeft {
		return TextSpan{}, false
	}

	height := metrics["line-height"]
	if height <= 0 {
		height = metrics["font-size"]
	}
	if height <= 0 {
		height = defaultLineHeight
	}

	width := float64(len([]rune(text))) * height * 0.5

	return TextSpan{
		Text: text,
		BBox: model.NewBBox(left, top, left+width, top+height),
	}, true
}

// collectText concatenates the text nodes under n in document order
func collectText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		sb.WriteString(collectText(child))
	}
	return sb.String()
}

// attrValue returns the value of the named attribute, or ""
func attrValue(n *html.Node, name string) string {
	for _, attr := range n.Attr {
		if attr.Key == name {
			return attr.Val
		}
	}
	return ""
}

// parseStyle extracts the point-valued properties of an inline style
func parseStyle(style string) map[string]float64 {
	values := make(map[string]float64)
	for _, match := range styleValuePattern.FindAllStringSubmatch(style, -1) {
		v, err := strconv.ParseFloat(match[2], 64)
		if err != nil {
			continue
		}
		values[match[1]] = v
	}
	return values
}
