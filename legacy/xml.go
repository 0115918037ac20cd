package legacy

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Node is one element of a legacy document. Legacy files carry no
// attributes that matter, only nested elements and trimmed text.
type Node struct {
	Name     string
	Text     string
	Children []*Node
}

// parseDocument reads the whole document into a Node tree and returns the root.
func parseDocument(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false

	var stack []*Node
	var root *Node
	var text strings.Builder

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Name: t.Name.Local}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			} else if root == nil {
				root = n
			}
			stack = append(stack, n)
			text.Reset()
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: unexpected </%s>", ErrInvalidDocument, t.Name.Local)
			}
			n := stack[len(stack)-1]
			if len(n.Children) == 0 {
				n.Text = strings.TrimSpace(text.String())
			}
			stack = stack[:len(stack)-1]
			text.Reset()
		}
	}

	if root == nil {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidDocument)
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("%w: unclosed <%s>", ErrInvalidDocument, stack[len(stack)-1].Name)
	}
	return root, nil
}

// Child returns the first child element with the given name, or nil.
func (n *Node) Child(name string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// All returns every child element with the given name.
func (n *Node) All(name string) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Path follows a chain of child names.
func (n *Node) Path(names ...string) *Node {
	cur := n
	for _, name := range names {
		cur = cur.Child(name)
	}
	return cur
}

// Has reports whether a child with the given name exists.
func (n *Node) Has(name string) bool {
	return n.Child(name) != nil
}

// String returns the trimmed text of a child, or "".
func (n *Node) String(name string) string {
	if c := n.Child(name); c != nil {
		return c.Text
	}
	return ""
}

// Float returns the numeric text of a child. The second result is false
// when the child is missing, empty or not a number.
func (n *Node) Float(name string) (float64, bool) {
	s := n.String(name)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Int returns the integer text of a child.
func (n *Node) Int(name string) (int, bool) {
	s := n.String(name)
	if s == "" {
		return 0, false
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return i, true
}

// clone returns a deep copy.
func (n *Node) clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{Name: n.Name, Text: n.Text, Children: make([]*Node, len(n.Children))}
	for i, child := range n.Children {
		c.Children[i] = child.clone()
	}
	return c
}

// withText returns a copy of n whose named child holds text, adding the
// child when missing.
func (n *Node) withText(name, text string) *Node {
	c := n.clone()
	if child := c.Child(name); child != nil {
		child.Text = text
		child.Children = nil
		return c
	}
	c.Children = append(c.Children, &Node{Name: name, Text: text})
	return c
}
