package rdf

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
)

// ContentExt is the file extension for canonically serialized context
// content.
const ContentExt = ".nt"

// EncodeTriples writes the ground statements among the given triples in
// canonical form: one N-Triples line per statement, sorted bytewise, no
// duplicates. Two statement sets with equal content always produce identical
// bytes, which is what makes content addressing work.
func EncodeTriples(triples []Triple) []byte {
	lines := make([]string, 0, len(triples))
	for _, t := range triples {
		if !t.Ground() {
			continue
		}
		lines = append(lines, t.NTriples())
	}
	sort.Strings(lines)
	var buf bytes.Buffer
	var prev string
	for i, line := range lines {
		if i > 0 && line == prev {
			continue
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
		prev = line
	}
	return buf.Bytes()
}

// DecodeTriples parses canonical statement lines produced by EncodeTriples
func DecodeTriples(r io.Reader) ([]Triple, error) {
	var triples []Triple
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		t, err := parseTripleLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %v", lineno, err)
		}
		triples = append(triples, t)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return triples, nil
}

func parseTripleLine(line string) (Triple, error) {
	rest := strings.TrimSuffix(line, " .")
	if rest == line {
		return Triple{}, fmt.Errorf("missing statement terminator in %q", line)
	}
	var terms []Term
	for i := 0; i < 3; i++ {
		term, remainder, err := parseTerm(rest)
		if err != nil {
			return Triple{}, err
		}
		terms = append(terms, term)
		rest = strings.TrimLeft(remainder, " ")
	}
	if rest != "" {
		return Triple{}, fmt.Errorf("trailing content %q after statement", rest)
	}
	return Triple{Subject: terms[0], Predicate: terms[1], Object: terms[2]}, nil
}

func parseTerm(s string) (Term, string, error) {
	switch {
	case strings.HasPrefix(s, "<"):
		end := strings.IndexByte(s, '>')
		if end < 0 {
			return nil, "", fmt.Errorf("unterminated IRI in %q", s)
		}
		return IRI(s[1:end]), s[end+1:], nil
	case strings.HasPrefix(s, `"`):
		return parseLiteral(s)
	case strings.HasPrefix(s, "?"):
		end := strings.IndexByte(s, ' ')
		if end < 0 {
			end = len(s)
		}
		return Variable(s[1:end]), s[end:], nil
	default:
		return nil, "", fmt.Errorf("unrecognized term at %q", s)
	}
}

func parseLiteral(s string) (Term, string, error) {
	// find the closing quote, skipping escaped characters
	end := -1
	for i := 1; i < len(s); i++ {
		if s[i] == '\\' {
			i++
			continue
		}
		if s[i] == '"' {
			end = i
			break
		}
	}
	if end < 0 {
		return nil, "", fmt.Errorf("unterminated literal in %q", s)
	}
	value, err := unescapeLiteral(s[1:end])
	if err != nil {
		return nil, "", err
	}
	lit := Literal{Value: value}
	rest := s[end+1:]
	switch {
	case strings.HasPrefix(rest, "@"):
		langEnd := strings.IndexByte(rest, ' ')
		if langEnd < 0 {
			langEnd = len(rest)
		}
		lit.Language = rest[1:langEnd]
		rest = rest[langEnd:]
	case strings.HasPrefix(rest, "^^<"):
		dtEnd := strings.IndexByte(rest, '>')
		if dtEnd < 0 {
			return nil, "", fmt.Errorf("unterminated datatype IRI in %q", rest)
		}
		lit.Datatype = IRI(rest[3:dtEnd])
		rest = rest[dtEnd+1:]
	}
	return lit, rest, nil
}
