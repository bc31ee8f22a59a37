package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// IRRow is one line of the flattened instruction tree.
type IRRow struct {
	// Path is the dotted position of the node, e.g. "0.args.1".
	Path  string
	Depth int
	Key   string
	// Label is the summary of a container (its variant) or the raw JSON of a leaf.
	Label     string
	Container bool
	Size      int
}

// Search is the text the IR filter matches against.
func (r IRRow) Search() string {
	return r.Path + " " + r.Label
}

// FlattenIR turns the instruction tree into rows in pre-order. The root
// itself is hidden; containers are labelled by their variant field.
func FlattenIR(raw json.RawMessage) []IRRow {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return nil
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() && !root.IsArray() {
		return []IRRow{{Label: root.Raw}}
	}
	var rows []IRRow
	walkIR(root, "", 0, &rows)
	return rows
}

func walkIR(node gjson.Result, prefix string, depth int, rows *[]IRRow) {
	i := 0
	node.ForEach(func(key, val gjson.Result) bool {
		k := key.String()
		if node.IsArray() {
			k = strconv.Itoa(i)
		}
		i++
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		if val.IsObject() || val.IsArray() {
			*rows = append(*rows, IRRow{
				Path:      path,
				Depth:     depth,
				Key:       k,
				Label:     containerLabel(val),
				Container: true,
				Size:      childCount(val),
			})
			walkIR(val, path, depth+1, rows)
			return true
		}
		*rows = append(*rows, IRRow{Path: path, Depth: depth, Key: k, Label: val.Raw})
		return true
	})
}

// containerLabel prefers variant, then type, then the container kind.
func containerLabel(val gjson.Result) string {
	if val.IsObject() {
		for _, field := range []string{"variant", "type"} {
			if f := val.Get(field); f.Type == gjson.String && f.Str != "" {
				return strings.ToUpper(f.Str)
			}
		}
		return "OBJECT"
	}
	return fmt.Sprintf("ARRAY[%d]", childCount(val))
}

func childCount(val gjson.Result) int {
	n := 0
	val.ForEach(func(_, _ gjson.Result) bool {
		n++
		return true
	})
	return n
}

// VisibleRows returns the indexes of rows not hidden under a collapsed container.
func VisibleRows(rows []IRRow, collapsed map[string]bool) []int {
	out := make([]int, 0, len(rows))
	skipBelow := -1
	for i, r := range rows {
		if skipBelow >= 0 {
			if r.Depth > skipBelow {
				continue
			}
			skipBelow = -1
		}
		out = append(out, i)
		if r.Container && collapsed[r.Path] {
			skipBelow = r.Depth
		}
	}
	return out
}

type irSource []IRRow

func (s irSource) String(i int) string { return s[i].Search() }
func (s irSource) Len() int            { return len(s) }

// FilterRows fuzzy-matches query against every row, ignoring collapse
// state. Matches come back in tree order.
func FilterRows(rows []IRRow, query string) fuzzy.Matches {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	matches := fuzzy.FindFrom(query, irSource(rows))
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Index < matches[j].Index })
	return matches
}

// RawIR renders the instruction tree as colored, indented JSON.
func RawIR(raw json.RawMessage, color bool) []string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return nil
	}
	out := pretty.Pretty(raw)
	if color {
		out = pretty.Color(out, pretty.TerminalStyle)
	}
	return strings.Split(strings.TrimRight(string(out), "\n"), "\n")
}
