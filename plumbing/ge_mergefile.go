package plumbing

import (
	"bytes"
	"slices"
	"strings"

	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

const (
	conflictOursMarker   = "<<<<<<< ours\n"
	conflictSepMarker    = "=======\n"
	conflictTheirsMarker = ">>>>>>> theirs\n"
)

// hunk replaces base lines [start, end) with lines.
type hunk struct {
	start, end int
	lines      []string
}

// lineCodec maps every distinct line to one rune so the character differ works on whole lines.
type lineCodec struct {
	ids   map[string]rune
	lines map[rune]string
}

func newLineCodec() *lineCodec {
	return &lineCodec{ids: map[string]rune{}, lines: map[rune]string{}}
}

func (c *lineCodec) encode(lines []string) []rune {
	out := make([]rune, len(lines))
	for i, l := range lines {
		r, ok := c.ids[l]
		if !ok {
			r = rune(len(c.ids) + 1)
			// Skip the surrogate block, those runes do not survive a string round trip
			if r >= 0xD800 {
				r += 0x800
			}
			c.ids[l] = r
			c.lines[r] = l
		}
		out[i] = r
	}
	return out
}

func (c *lineCodec) decode(rs []rune) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = c.lines[r]
	}
	return out
}

// splitLines splits content after each newline. A missing final newline leaves a short last line.
func splitLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	lines := strings.SplitAfter(string(content), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// lineHunks lists the changes that turn base into other, in base order.
func lineHunks(dmp *diffpatch.DiffMatchPatch, codec *lineCodec, base, other []string) []hunk {
	diffs := dmp.DiffMainRunes(codec.encode(base), codec.encode(other), false)

	var hunks []hunk
	var cur *hunk
	pos := 0
	for _, d := range diffs {
		rs := []rune(d.Text)
		switch d.Type {
		case diffpatch.DiffEqual:
			if cur != nil {
				hunks = append(hunks, *cur)
				cur = nil
			}
			pos += len(rs)
		case diffpatch.DiffDelete:
			if cur == nil {
				cur = &hunk{start: pos, end: pos}
			}
			cur.end += len(rs)
			pos += len(rs)
		case diffpatch.DiffInsert:
			if cur == nil {
				cur = &hunk{start: pos, end: pos}
			}
			cur.lines = append(cur.lines, codec.decode(rs)...)
		}
	}
	if cur != nil {
		hunks = append(hunks, *cur)
	}
	return hunks
}

// applyHunks rewrites base[start:end] with the given hunks, which must lie inside that range.
func applyHunks(base []string, start, end int, hunks []hunk) []string {
	var out []string
	p := start
	for _, h := range hunks {
		out = append(out, base[p:h.start]...)
		out = append(out, h.lines...)
		p = h.end
	}
	return append(out, base[p:end]...)
}

func writeLines(buf *bytes.Buffer, lines []string) {
	for _, l := range lines {
		buf.WriteString(l)
	}
}

// writeConflictSide terminates the last line so the next marker starts on its own line.
func writeConflictSide(buf *bytes.Buffer, lines []string) {
	writeLines(buf, lines)
	if len(lines) > 0 && !strings.HasSuffix(lines[len(lines)-1], "\n") {
		buf.WriteByte('\n')
	}
}

// MergeFile does a line based three-way merge of ours and theirs against base. Changes that overlap
// or touch are a conflict unless both sides made the same edit; each conflict is written between
// ours/theirs markers. It returns the merged content and the number of conflicts.
func MergeFile(ours, base, theirs []byte) ([]byte, int) {
	dmp := diffpatch.New()
	dmp.DiffTimeout = 0
	codec := newLineCodec()

	baseLines := splitLines(base)
	a := lineHunks(dmp, codec, baseLines, splitLines(ours))
	b := lineHunks(dmp, codec, baseLines, splitLines(theirs))

	var buf bytes.Buffer
	conflicts := 0
	pos, i, j := 0, 0, 0

	for i < len(a) || j < len(b) {
		var ah, bh []hunk
		var start, end int

		// Open a region at the earliest hunk, then pull in everything that reaches it
		if j >= len(b) || (i < len(a) && a[i].start <= b[j].start) {
			start, end = a[i].start, a[i].end
			ah = append(ah, a[i])
			i++
		} else {
			start, end = b[j].start, b[j].end
			bh = append(bh, b[j])
			j++
		}
		for {
			if i < len(a) && a[i].start <= end {
				end = max(end, a[i].end)
				ah = append(ah, a[i])
				i++
				continue
			}
			if j < len(b) && b[j].start <= end {
				end = max(end, b[j].end)
				bh = append(bh, b[j])
				j++
				continue
			}
			break
		}

		writeLines(&buf, baseLines[pos:start])
		pos = end

		oursRegion := applyHunks(baseLines, start, end, ah)
		theirsRegion := applyHunks(baseLines, start, end, bh)
		switch {
		case len(bh) == 0, slices.Equal(oursRegion, theirsRegion):
			writeLines(&buf, oursRegion)
		case len(ah) == 0:
			writeLines(&buf, theirsRegion)
		default:
			conflicts++
			buf.WriteString(conflictOursMarker)
			writeConflictSide(&buf, oursRegion)
			buf.WriteString(conflictSepMarker)
			writeConflictSide(&buf, theirsRegion)
			buf.WriteString(conflictTheirsMarker)
		}
	}

	writeLines(&buf, baseLines[pos:])
	return buf.Bytes(), conflicts
}
