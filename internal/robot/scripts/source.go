package scripts

// Source yields script lines in order. It is the interpreter's line source;
// lines are never revisited.
type Source struct {
	lines []string
	next  int
}

func NewSource(lines []string) *Source {
	return &Source{lines: lines}
}

// Next returns the next line and its 1-based number. ok is false at the end.
func (s *Source) Next() (line string, number int, ok bool) {
	if s.next >= len(s.lines) {
		return "", 0, false
	}
	line = s.lines[s.next]
	s.next++
	return line, s.next, true
}

// Len is the number of lines in the script.
func (s *Source) Len() int { return len(s.lines) }
