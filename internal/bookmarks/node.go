// Package bookmarks models the browser bookmark tree and reads it from a
// browser profile.
package bookmarks

// Node is one entry of the bookmark tree. A node without a URL is a folder.
// Dates are epoch milliseconds; zero means the browser did not record one.
type Node struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	URL               string `json:"url,omitempty"`
	DateAdded         int64  `json:"dateAdded,omitempty"`
	DateGroupModified int64  `json:"dateGroupModified,omitempty"`
	Children          []Node `json:"children,omitempty"`
}

// IsFolder reports whether the node is a folder.
func (n *Node) IsFolder() bool {
	return n.URL == ""
}

// Count returns the number of URL nodes in nodes and all their descendants.
func Count(nodes []Node) int {
	total := 0
	for i := range nodes {
		if !nodes[i].IsFolder() {
			total++
		}
		total += Count(nodes[i].Children)
	}
	return total
}

// Walk visits every node depth-first, parents before children.
// Returning false from fn stops the walk.
func Walk(nodes []Node, fn func(n *Node, depth int) bool) {
	walk(nodes, 0, fn)
}

func walk(nodes []Node, depth int, fn func(n *Node, depth int) bool) bool {
	for i := range nodes {
		if !fn(&nodes[i], depth) {
			return false
		}
		if !walk(nodes[i].Children, depth+1, fn) {
			return false
		}
	}
	return true
}
