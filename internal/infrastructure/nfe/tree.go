package nfe

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// node is an element or a character data node of the parsed document
type node struct {
	name     string // local name, empty for character data
	data     string
	children []*node
}

func (n *node) isText() bool {
	return n.name == ""
}

// first returns the first descendant element with the given local name
func (n *node) first(name string) *node {
	for _, c := range n.children {
		if c.isText() {
			continue
		}
		if c.name == name {
			return c
		}
		if found := c.first(name); found != nil {
			return found
		}
	}
	return nil
}

// all returns every descendant element with the given local name in document order
func (n *node) all(name string) []*node {
	var out []*node
	for _, c := range n.children {
		if c.isText() {
			continue
		}
		if c.name == name {
			out = append(out, c)
		}
		out = append(out, c.all(name)...)
	}
	return out
}

// text returns the concatenated character data of the node and its descendants
func (n *node) text() string {
	if n.isText() {
		return n.data
	}
	var sb strings.Builder
	for _, c := range n.children {
		sb.WriteString(c.text())
	}
	return sb.String()
}

// charsetReader decodes documents declaring a non UTF-8 encoding,
// e.g. <?xml version="1.0" encoding="ISO-8859-1"?>
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	return enc.NewDecoder().Reader(input), nil
}

// parse builds the node tree of an XML document
func parse(data []byte) (*node, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charsetReader

	root := &node{name: "#document"}
	stack := []*node{root}
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		parent := stack[len(stack)-1]
		switch t := tok.(type) {
		case xml.StartElement:
			el := &node{name: t.Name.Local}
			parent.children = append(parent.children, el)
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			parent.children = append(parent.children, &node{data: string(t)})
		}
	}
	if len(stack) != 1 {
		return nil, fmt.Errorf("unexpected end of document")
	}
	if len(root.children) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	return root, nil
}
