package serializer

import (
	"html"
	"strconv"
	"strings"

	"github.com/mrz1836/marksafe/internal/bookmarks"
)

const netscapeHeader = `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<!-- This is an automatically generated file.
     It will be read and overwritten.
     DO NOT EDIT! -->
<META HTTP-EQUIV="Content-Type" CONTENT="text/html; charset=UTF-8">
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks</H1>
`

// Netscape list delimiters. Every open is matched by exactly one close.
const (
	listOpen  = "<DL><p>"
	listClose = "</DL><p>"
)

// HTML renders the envelope as a Netscape bookmark file.
func HTML(data *BackupData) string {
	var sb strings.Builder
	sb.WriteString(netscapeHeader)
	sb.WriteString(listOpen)
	sb.WriteByte('\n')
	writeNodes(&sb, data.Bookmarks, 1)
	sb.WriteString(listClose)
	sb.WriteByte('\n')
	return sb.String()
}

func writeNodes(sb *strings.Builder, nodes []bookmarks.Node, depth int) {
	for i := range nodes {
		writeNode(sb, &nodes[i], depth)
	}
}

func writeNode(sb *strings.Builder, n *bookmarks.Node, depth int) {
	indent := strings.Repeat("    ", depth)

	switch {
	case !n.IsFolder():
		sb.WriteString(indent)
		sb.WriteString(`<DT><A HREF="`)
		sb.WriteString(html.EscapeString(n.URL))
		sb.WriteByte('"')
		writeDateAttr(sb, "ADD_DATE", n.DateAdded)
		sb.WriteByte('>')
		sb.WriteString(html.EscapeString(n.Title))
		sb.WriteString("</A>\n")

	case n.Title == "":
		// Untitled containers such as the tree root only contribute their children.
		writeNodes(sb, n.Children, depth)

	default:
		sb.WriteString(indent)
		sb.WriteString("<DT><H3")
		writeDateAttr(sb, "ADD_DATE", n.DateAdded)
		writeDateAttr(sb, "LAST_MODIFIED", n.DateGroupModified)
		sb.WriteByte('>')
		sb.WriteString(html.EscapeString(n.Title))
		sb.WriteString("</H3>\n")

		sb.WriteString(indent)
		sb.WriteString(listOpen)
		sb.WriteByte('\n')
		writeNodes(sb, n.Children, depth+1)
		sb.WriteString(indent)
		sb.WriteString(listClose)
		sb.WriteByte('\n')
	}
}

// writeDateAttr writes a Netscape date attribute in epoch seconds; zero dates are omitted.
func writeDateAttr(sb *strings.Builder, name string, epochMs int64) {
	if epochMs <= 0 {
		return
	}
	sb.WriteByte(' ')
	sb.WriteString(name)
	sb.WriteString(`="`)
	sb.WriteString(strconv.FormatInt(epochMs/1000, 10))
	sb.WriteByte('"')
}
