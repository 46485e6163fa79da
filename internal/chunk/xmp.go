package chunk

import (
	"iter"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	// xmpTagName captures the element name as written, since the tokenizer
	// lowercases names and XMP property names are case-sensitive.
	xmpTagName = regexp.MustCompile(`^<([^\s/>]+)`)

	// xmpAttr captures prefixed attributes with their original case.
	xmpAttr = regexp.MustCompile(`([A-Za-z_][\w.\-]*:[\w.\-]+)\s*=\s*(?:"([^"]*)"|'([^']*)')`)
)

// xmpWrapperPrefixes are the namespace prefixes of the packet structure.
// Elements and attributes under them are never reported as properties.
var xmpWrapperPrefixes = map[string]bool{
	"x":     true,
	"rdf":   true,
	"xmlns": true,
	"xml":   true,
}

// xmpProperty reports whether name is a prefixed property name outside the
// packet wrapper namespaces.
func xmpProperty(name string) bool {
	prefix, local, ok := strings.Cut(name, ":")
	if !ok || prefix == "" || local == "" {
		return false
	}
	return !xmpWrapperPrefixes[prefix]
}

// xmpPairs walks an XMP packet and yields (property, value) pairs.
//
// Attributes in simple form (tiff:Make="Canon") are yielded directly.
// Character data is attributed to the innermost enclosing property element,
// so an rdf:Seq of rdf:li items yields one pair per item. Markup is
// stripped; only prefixed names are retained.
func xmpPairs(packet string) iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		z := html.NewTokenizer(strings.NewReader(packet))
		stack := make([]string, 0, 8)

		for {
			tt := z.Next()
			switch tt {
			case html.ErrorToken:
				return
			case html.StartTagToken, html.SelfClosingTagToken:
				raw := string(z.Raw())
				name := ""
				if m := xmpTagName.FindStringSubmatch(raw); m != nil {
					name = m[1]
				}
				for _, m := range xmpAttr.FindAllStringSubmatch(raw, -1) {
					if !xmpProperty(m[1]) {
						continue
					}
					value := m[2]
					if value == "" {
						value = m[3]
					}
					if !yield(m[1], html.UnescapeString(value)) {
						return
					}
				}
				if tt == html.StartTagToken {
					stack = append(stack, name)
				}
			case html.EndTagToken:
				if len(stack) > 0 {
					stack = stack[:len(stack)-1]
				}
			case html.TextToken:
				text := strings.TrimSpace(string(z.Text()))
				if text == "" {
					continue
				}
				for i := len(stack) - 1; i >= 0; i-- {
					if xmpProperty(stack[i]) {
						if !yield(stack[i], text) {
							return
						}
						break
					}
				}
			default:
			}
		}
	}
}
