package solidity

import (
	"regexp"
	"strings"
)

// Function is one function unit cut out of contract source.
type Function struct {
	Ordinal      int    `json:"ordinal"`
	Name         string `json:"name"`
	Signature    string `json:"signature"`
	Visibility   string `json:"visibility"`
	NonReentrant bool   `json:"nonReentrant"`
	Body         string `json:"body"`
	BodyOffset   int    `json:"bodyOffset"` // offset of Body within the source
}

// Only the four visibility keywords and nonReentrant may sit between the
// parameter list and the body; any other modifier excludes the function.
var reHeader = regexp.MustCompile(`\bfunction\s+(\w+)\s*\(([^)]*)\)\s*(public|external|internal|private)?\s*(nonReentrant)?\s*\{`)

// ExtractFunctions returns the function units of src in order of appearance.
func ExtractFunctions(src string) []Function {
	var out []Function
	pos := 0
	for pos < len(src) {
		m := reHeader.FindStringSubmatchIndex(src[pos:])
		if m == nil {
			break
		}
		open := pos + m[1] - 1
		fn := Function{
			Ordinal:      len(out) + 1,
			Name:         src[pos+m[2] : pos+m[3]],
			Signature:    strings.TrimSpace(src[pos+m[0] : open]),
			NonReentrant: m[8] >= 0,
			BodyOffset:   open + 1,
		}
		if m[6] >= 0 {
			fn.Visibility = src[pos+m[6] : pos+m[7]]
		}
		end, ok := MatchBrace(src, open)
		if !ok {
			fn.Body = src[open+1:]
			out = append(out, fn)
			break
		}
		fn.Body = src[open+1 : end]
		out = append(out, fn)
		pos = end + 1
	}
	return out
}

// MatchBrace returns the index of the '}' closing the '{' at open.
// Braces inside comments and string literals are not counted.
func MatchBrace(src string, open int) (int, bool) {
	if open < 0 || open >= len(src) || src[open] != '{' {
		return -1, false
	}
	depth := 0
	for i := open; i < len(src); i++ {
		switch c := src[i]; c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		case '"', '\'':
			i = skipString(src, i, c)
		case '/':
			if i+1 >= len(src) {
				continue
			}
			switch src[i+1] {
			case '/':
				nl := strings.IndexByte(src[i:], '\n')
				if nl < 0 {
					return -1, false
				}
				i += nl
			case '*':
				end := strings.Index(src[i+2:], "*/")
				if end < 0 {
					return -1, false
				}
				i += end + 3
			}
		}
	}
	return -1, false
}

// skipString returns the index of the quote closing the literal at start.
func skipString(src string, start int, quote byte) int {
	for i := start + 1; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case quote:
			return i
		case '\n':
			// unterminated literal; resume scanning on the next line
			return i
		}
	}
	return len(src)
}
