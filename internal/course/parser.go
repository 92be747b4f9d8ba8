package course

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Header line prefixes. The first three lines of a course file must carry
// title, link and instructor in this fixed order.
const (
	titlePrefix      = "Course Title:"
	linkPrefix       = "Course Link:"
	instructorPrefix = "Course Instructor:"
	lessonLinkPrefix = "Lesson Link:"
)

// ErrMalformedHeader indicates a file that does not start with the expected
// three-line course header. Such files are skipped during ingestion.
var ErrMalformedHeader = errors.New("malformed course header")

// lessonMarker matches lesson section markers such as "Lesson 3: Advanced Topics".
var lessonMarker = regexp.MustCompile(`^Lesson\s+(\d+):\s*(.*)$`)

// ParseFile reads and parses a single course file.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening course file: %w", err)
	}
	defer f.Close()

	doc, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	doc.FileName = filepath.Base(path)
	return doc, nil
}

// Parse parses a course document from r.
//
// Expected layout:
//
//	Course Title: <title>
//	Course Link: <url>
//	Course Instructor: <name>
//
//	Lesson 0: Introduction
//	Lesson Link: <url>
//	<lesson content...>
//	Lesson 1: ...
//
// The title is mandatory; link and instructor may be empty. Content before
// the first lesson marker becomes the document preamble.
func Parse(r io.Reader) (*Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	header := make([]string, 0, 3)
	for len(header) < 3 && scanner.Scan() {
		header = append(header, scanner.Text())
	}
	if len(header) < 3 {
		return nil, fmt.Errorf("%w: expected at least 3 header lines", ErrMalformedHeader)
	}

	title, ok := strings.CutPrefix(header[0], titlePrefix)
	if !ok || strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: first line must start with %q", ErrMalformedHeader, titlePrefix)
	}
	link, ok := strings.CutPrefix(header[1], linkPrefix)
	if !ok {
		return nil, fmt.Errorf("%w: second line must start with %q", ErrMalformedHeader, linkPrefix)
	}
	instructor, ok := strings.CutPrefix(header[2], instructorPrefix)
	if !ok {
		return nil, fmt.Errorf("%w: third line must start with %q", ErrMalformedHeader, instructorPrefix)
	}

	doc := &Document{
		Title:      strings.TrimSpace(title),
		Link:       strings.TrimSpace(link),
		Instructor: strings.TrimSpace(instructor),
	}

	var (
		current  *Lesson
		buf      strings.Builder
		preamble strings.Builder
	)

	flush := func() {
		if current == nil {
			return
		}
		current.Content = strings.TrimSpace(buf.String())
		doc.Lessons = append(doc.Lessons, *current)
		current = nil
		buf.Reset()
	}

	for scanner.Scan() {
		line := scanner.Text()

		if m := lessonMarker.FindStringSubmatch(line); m != nil {
			flush()
			number, err := strconv.Atoi(m[1])
			if err != nil {
				// \d+ matched, so this only fires on overflow-sized numbers.
				return nil, fmt.Errorf("lesson number %q: %w", m[1], err)
			}
			current = &Lesson{Number: number, Title: strings.TrimSpace(m[2])}
			continue
		}

		if current != nil && current.Link == "" && buf.Len() == 0 {
			if l, ok := strings.CutPrefix(line, lessonLinkPrefix); ok {
				current.Link = strings.TrimSpace(l)
				continue
			}
		}

		if current != nil {
			buf.WriteString(line)
			buf.WriteString("\n")
		} else {
			preamble.WriteString(line)
			preamble.WriteString("\n")
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading course file: %w", err)
	}
	flush()

	doc.Preamble = strings.TrimSpace(preamble.String())
	return doc, nil
}
