package doctree

// DocTree is the nested view of an outline.
type DocTree struct {
	Title    string     `json:"title"`
	Children []*DocNode `json:"children"`
}

// DocNode is one heading with the headings nested below it.
type DocNode struct {
	Title    string     `json:"title"`
	Level    Level      `json:"level"`
	Page     int        `json:"page"`
	Children []*DocNode `json:"children,omitempty"`
}

// Tree nests each heading under the closest preceding heading of a
// shallower level. Headings that skip levels attach to whatever is open.
func (o Outline) Tree() *DocTree {
	tree := &DocTree{Title: o.Title, Children: []*DocNode{}}

	type stackEntry struct {
		node  *DocNode
		depth int
	}
	var stack []stackEntry

	for _, h := range o.Headings {
		depth := h.Level.Depth()
		if depth <= 0 {
			continue
		}
		node := &DocNode{Title: h.Text(), Level: h.Level, Page: h.Page}

		// Pop until the top of the stack is shallower than this heading.
		for len(stack) > 0 && stack[len(stack)-1].depth >= depth {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			tree.Children = append(tree.Children, node)
		} else {
			parent := stack[len(stack)-1].node
			parent.Children = append(parent.Children, node)
		}
		stack = append(stack, stackEntry{node: node, depth: depth})
	}
	return tree
}
