package patch

import (
	"strings"

	"github.com/ThinkArcHQ/profilebase/internal/codeblock"
)

// Marker lines delimiting one search/replace pair.
const (
	SearchMarker  = "<<<<<<< SEARCH"
	DividerMarker = "======="
	ReplaceMarker = ">>>>>>> REPLACE"
)

// SearchReplaceBlock is one atomic edit against a file.
type SearchReplaceBlock struct {
	File    string `json:"file"`
	Search  string `json:"search"`
	Replace string `json:"replace"`
}

// ParsedEdit groups the ordered blocks targeting one file.
type ParsedEdit struct {
	File   string               `json:"file"`
	Blocks []SearchReplaceBlock `json:"blocks"`
}

type scanState int

const (
	seekingFile scanState = iota
	seekingSearchOpen
	inSearch
	inReplace
)

// HasMarkers reports whether text carries search/replace sections.
func HasMarkers(text string) bool {
	return strings.Contains(text, SearchMarker) && strings.Contains(text, ReplaceMarker)
}

// ParseEdits scans text once, line by line, and returns one ParsedEdit per
// file with at least one terminated pair. Pairs still open at end of input,
// or cut off by another SEARCH marker or FILE declaration, are dropped.
func ParseEdits(text string) []ParsedEdit {
	var (
		state   = seekingFile
		file    string
		search  []string
		replace []string
		order   []string
		byFile  = make(map[string][]SearchReplaceBlock)
	)

	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		switch state {
		case seekingFile, seekingSearchOpen:
			if p, ok := codeblock.DeclaredPath(line); ok {
				file = p
				state = seekingSearchOpen
				if p == "" {
					state = seekingFile
				}
				continue
			}
			if state == seekingSearchOpen && isMarker(trimmed, SearchMarker) {
				search, replace = nil, nil
				state = inSearch
			}
		case inSearch, inReplace:
			// An unterminated pair ends at the next SEARCH marker or FILE
			// declaration and is dropped.
			if isMarker(trimmed, SearchMarker) {
				search, replace = nil, nil
				state = inSearch
				continue
			}
			if strings.HasPrefix(trimmed, "FILE:") {
				if p, ok := codeblock.DeclaredPath(line); ok {
					file = p
					state = seekingSearchOpen
					if p == "" {
						state = seekingFile
					}
					continue
				}
			}
			if state == inSearch {
				if trimmed == DividerMarker {
					state = inReplace
					continue
				}
				search = append(search, line)
				continue
			}
			if isMarker(trimmed, ReplaceMarker) {
				if _, seen := byFile[file]; !seen {
					order = append(order, file)
				}
				byFile[file] = append(byFile[file], SearchReplaceBlock{
					File:    file,
					Search:  strings.Join(search, "\n"),
					Replace: strings.Join(replace, "\n"),
				})
				state = seekingSearchOpen
				continue
			}
			replace = append(replace, line)
		}
	}

	edits := make([]ParsedEdit, 0, len(order))
	for _, f := range order {
		edits = append(edits, ParsedEdit{File: f, Blocks: byFile[f]})
	}
	return edits
}

func isMarker(trimmed, marker string) bool {
	return strings.HasPrefix(trimmed, marker)
}
