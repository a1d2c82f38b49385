package indexer

import (
	"strings"
)

// snapFloor is how much of a window must survive a line-break snap. Snapping
// a boundary back to a newline is preferred, but never at the cost of
// shrinking the window below 60% of the chunk size.
const snapFloor = 60

// ChunkText splits text into bounded, overlapping segments with line-aware
// boundaries. Sizes are in characters (runes). The same input always yields
// the same segment list.
func ChunkText(text string, chunkSize, overlap, maxChunks int) []string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if text == "" {
		return nil
	}
	if chunkSize < 1 {
		chunkSize = 1
	}

	// Effective overlap stays inside [0, chunkSize-1] so the cursor always
	// moves forward.
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize - 1
	}
	step := chunkSize - overlap
	if step < 1 {
		step = 1
	}

	runes := []rune(text)
	var segments []string

	for start := 0; start < len(runes); start += step {
		end := start + chunkSize
		last := end >= len(runes)
		if last {
			end = len(runes)
		} else {
			// Mid-text boundary: prefer the nearest line break behind the
			// window edge, unless that leaves too small a window.
			if snapped := snapToLineBreak(runes, start, end); snapped > start {
				end = snapped
			}
		}

		segment := strings.TrimSpace(string(runes[start:end]))
		if segment != "" {
			segments = append(segments, segment)
		}

		if maxChunks > 0 && len(segments) >= maxChunks {
			break
		}
		if last {
			break
		}
	}

	return segments
}

// snapToLineBreak looks backward from end for a newline and returns the
// snapped boundary, or 0 when no acceptable break exists.
func snapToLineBreak(runes []rune, start, end int) int {
	minEnd := start + (end-start)*snapFloor/100
	for i := end - 1; i > start; i-- {
		if runes[i] == '\n' {
			if i >= minEnd {
				return i
			}
			return 0
		}
	}
	return 0
}
