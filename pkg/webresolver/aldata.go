package webresolver

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const metaTagPrefix = "al"

// Node is one level of the tree built from al: meta tags.
// <meta property="al:ios:url" content="x"> ends up as root.ios[0].url[0] with Value "x".
type Node struct {
	Value    string
	HasValue bool
	Children map[string][]*Node
}

func newNode() *Node {
	return &Node{Children: map[string][]*Node{}}
}

// Get returns the child list under key. Safe on a nil Node.
func (n *Node) Get(key string) []*Node {
	if n == nil {
		return nil
	}
	return n.Children[key]
}

// ValueAt returns the value of the i-th child under key.
func (n *Node) ValueAt(key string, i int) (string, bool) {
	children := n.Get(key)
	if i < 0 || i >= len(children) || !children[i].HasValue {
		return "", false
	}
	return children[i].Value, true
}

// MetaTag is a property/content pair read from the page.
type MetaTag struct {
	Property   string
	Content    string
	HasContent bool
}

// ParseALData reads every al: meta tag from an HTML document into a tree.
func ParseALData(body []byte) (*Node, error) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	doc := goquery.NewDocumentFromNode(root)

	var tags []MetaTag
	doc.Find("meta[property^='al:']").Each(func(_ int, s *goquery.Selection) {
		property, _ := s.Attr("property")
		content, ok := s.Attr("content")
		tags = append(tags, MetaTag{Property: property, Content: content, HasContent: ok})
	})
	return BuildALData(tags), nil
}

// BuildALData nests tags by their colon separated path. A repeated leaf
// starts a new entry while intermediate levels keep extending the last one,
// so consecutive al:ios:url / al:ios:app_name tags describe the same app.
func BuildALData(tags []MetaTag) *Node {
	al := newNode()
	for _, tag := range tags {
		components := strings.Split(tag.Property, ":")
		if len(components) < 2 || components[0] != metaTagPrefix {
			continue
		}

		cur := al
		for i := 1; i < len(components); i++ {
			children := cur.Children[components[i]]
			var child *Node
			if len(children) > 0 && i != len(components)-1 {
				child = children[len(children)-1]
			} else {
				child = newNode()
				cur.Children[components[i]] = append(children, child)
			}
			cur = child
		}

		if tag.HasContent {
			cur.Value = tag.Content
			cur.HasValue = true
		}
	}
	return al
}
