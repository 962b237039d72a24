// Package aggregator edits the provider list of a Mezzio config aggregator file.
//
// The file is never parsed as PHP. The editor only locates the opening
// marker of the provider array and manages a block of lines directly after
// it. Which lines belong to that block is decided by the caller's records,
// so removing a provider is an exact match on a tracked reference rather
// than a pattern match against whatever the file happens to contain.
package aggregator

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Marker opens the provider array in config/config.php.
const Marker = "new ConfigAggregator(["

// indent is the indentation of provider lines inside the array.
const indent = "    "

var (
	// ErrMarkerNotFound indicates the file has no (or more than one) opening marker.
	ErrMarkerNotFound = errors.New("config aggregator marker not found")

	// ErrDuplicateInsertion indicates the managed block no longer matches the
	// tracked records, or a reference would be listed twice.
	ErrDuplicateInsertion = errors.New("provider reference invariant violated")
)

var referenceLine = regexp.MustCompile(`^\s*\\?([A-Za-z_][A-Za-z0-9_\\]*)::class\s*,\s*$`)

// Line returns the exact line written for a provider reference.
func Line(reference string) string {
	return indent + reference + "::class,"
}

// markerEnd returns the offset just past the single opening marker.
func markerEnd(content []byte) (int, error) {
	idx := bytes.Index(content, []byte(Marker))
	if idx < 0 {
		return 0, ErrMarkerNotFound
	}
	if bytes.Contains(content[idx+len(Marker):], []byte(Marker)) {
		return 0, fmt.Errorf("%w: marker appears more than once", ErrMarkerNotFound)
	}
	return idx + len(Marker), nil
}

// Rewrite replaces the managed block with next.
//
// managed is the ordered list of references the caller previously wrote;
// they must sit directly after the marker in that order. next is written in
// its place, in order. All bytes outside the block are preserved.
func Rewrite(content []byte, managed, next []string) ([]byte, error) {
	start, err := markerEnd(content)
	if err != nil {
		return nil, err
	}

	pos := start
	for _, ref := range managed {
		want := "\n" + Line(ref)
		if !bytes.HasPrefix(content[pos:], []byte(want)) {
			return nil, fmt.Errorf("%w: managed provider %s not found after marker", ErrDuplicateInsertion, ref)
		}
		pos += len(want)
	}

	rest := content[pos:]
	seen := make(map[string]bool, len(next))
	for _, ref := range next {
		if seen[ref] {
			return nil, fmt.Errorf("%w: %s listed twice", ErrDuplicateInsertion, ref)
		}
		seen[ref] = true
		if hasReference(rest, ref) {
			return nil, fmt.Errorf("%w: %s already listed in aggregator", ErrDuplicateInsertion, ref)
		}
	}

	var buf bytes.Buffer
	buf.Grow(len(content) + 64*len(next))
	buf.Write(content[:start])
	for _, ref := range next {
		buf.WriteString("\n")
		buf.WriteString(Line(ref))
	}
	buf.Write(rest)
	return buf.Bytes(), nil
}

// References lists the class-constant providers of the array in file order.
// Entries that are not `Foo::class,` lines (comments, new ArrayProvider(...))
// are skipped.
func References(content []byte) ([]string, error) {
	start, err := markerEnd(content)
	if err != nil {
		return nil, err
	}

	var refs []string
	for _, line := range strings.Split(string(content[start:]), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "]") {
			break
		}
		if m := referenceLine.FindStringSubmatch(line); m != nil {
			refs = append(refs, m[1])
		}
	}
	return refs, nil
}

// Contains reports whether the aggregator lists reference.
func Contains(content []byte, reference string) (bool, error) {
	refs, err := References(content)
	if err != nil {
		return false, err
	}
	for _, r := range refs {
		if r == reference {
			return true, nil
		}
	}
	return false, nil
}

// hasReference reports whether any line of the array region lists ref.
func hasReference(region []byte, ref string) bool {
	for _, line := range strings.Split(string(region), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "]") {
			return false
		}
		if m := referenceLine.FindStringSubmatch(line); m != nil && m[1] == ref {
			return true
		}
	}
	return false
}
