package script

import "strings"

// CommentMarker starts a comment line when it is the first character.
const CommentMarker = '#'

// Delimiters separate tokens within a statement.
const Delimiters = " \t,[]()"

func isDelimiter(r rune) bool {
	return strings.ContainsRune(Delimiters, r)
}

// IsBlank reports whether line carries no statement: empty or a comment. A
// whitespace-only line is not blank; it is a statement missing its token.
func IsBlank(line string) bool {
	return line == "" || line[0] == CommentMarker
}

// Tokenize splits the leading token from the remainder of a statement. The
// remainder starts after the single delimiter that ended the token. ok is
// false when the statement holds only delimiters.
func Tokenize(line string) (token, rest string, ok bool) {
	start := strings.IndexFunc(line, func(r rune) bool { return !isDelimiter(r) })
	if start < 0 {
		return "", "", false
	}
	line = line[start:]

	end := strings.IndexFunc(line, isDelimiter)
	if end < 0 {
		return line, "", true
	}
	return line[:end], line[end+1:], true
}

// Fields splits an argument string on the statement delimiters.
func Fields(args string) []string {
	return strings.FieldsFunc(args, isDelimiter)
}
