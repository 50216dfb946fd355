package patch

import (
	"bytes"
	"strings"
)

// literal is one PDF string literal inside a content stream that feeds a
// text-showing operator, with the byte range of its raw (escaped) inner
// content and its decoded form.
type literal struct {
	start   int // offset of the byte after '(' in the stream
	end     int // offset of the matching ')'
	decoded string
}

// findTextLiterals scans a decoded content stream for string literals on
// lines carrying a text-showing operator (Tj, TJ, ', "). Offsets are
// relative to the stream start so callers can splice replacements in place.
func findTextLiterals(data []byte) []literal {
	var out []literal
	offset := 0
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		if isTextShowLine(line) {
			out = append(out, scanLiterals(data, offset, offset+len(line))...)
		}
		offset += len(line) + 1
	}
	return out
}

// isTextShowLine reports whether the line contains a text-showing operator as
// a standalone token outside any string literal. Operators are not
// necessarily line-final: generators routinely emit "(text) Tj ET" on one
// line.
func isTextShowLine(line []byte) bool {
	i := 0
	for i < len(line) {
		switch line[i] {
		case '(':
			// Skip the literal so text like (press Tj) cannot
			// masquerade as an operator.
			depth := 1
			i++
			for i < len(line) && depth > 0 {
				switch line[i] {
				case '\\':
					i++
				case '(':
					depth++
				case ')':
					depth--
				}
				i++
			}
		case ' ', '\t', '\r':
			i++
		default:
			start := i
			for i < len(line) && line[i] != ' ' && line[i] != '\t' && line[i] != '\r' && line[i] != '(' {
				i++
			}
			switch string(line[start:i]) {
			case "Tj", "TJ", "'", `"`:
				return true
			}
		}
	}
	return false
}

// scanLiterals walks data[from:to] collecting parenthesized literals,
// honoring backslash escapes and balanced nested parentheses.
func scanLiterals(data []byte, from, to int) []literal {
	var out []literal
	i := from
	for i < to {
		if data[i] != '(' {
			i++
			continue
		}
		start := i + 1
		depth := 1
		j := start
		for j < to && depth > 0 {
			switch data[j] {
			case '\\':
				j++ // skip escaped byte
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					out = append(out, literal{
						start:   start,
						end:     j,
						decoded: decodeLiteral(data[start:j]),
					})
				}
			}
			j++
		}
		i = j
	}
	return out
}

// decodeLiteral resolves basic PDF escape sequences in a literal body.
func decodeLiteral(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(raw[i])
		default:
			// Octal escape (e.g. \040 for space).
			if raw[i] >= '0' && raw[i] <= '7' {
				val := int(raw[i] - '0')
				for k := 0; k < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; k++ {
					i++
					val = val*8 + int(raw[i]-'0')
				}
				sb.WriteByte(byte(val))
			} else {
				sb.WriteByte(raw[i])
			}
		}
	}
	return sb.String()
}

// encodeLiteral escapes text for use inside a PDF string literal.
func encodeLiteral(text string) []byte {
	var buf bytes.Buffer
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\\', '(', ')':
			buf.WriteByte('\\')
			buf.WriteByte(text[i])
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			buf.WriteByte(text[i])
		}
	}
	return buf.Bytes()
}

// countOccurrences sums occurrences of target across decoded literals.
func countOccurrences(lits []literal, target string) int {
	n := 0
	for _, l := range lits {
		n += strings.Count(l.decoded, target)
	}
	return n
}

// exciseLiteral returns a copy of data with the single occurrence of target
// removed from the literal that contains it. The caller has already
// established that exactly one literal contains exactly one occurrence.
func exciseLiteral(data []byte, lits []literal, target string) []byte {
	for _, l := range lits {
		if !strings.Contains(l.decoded, target) {
			continue
		}
		remainder := strings.Replace(l.decoded, target, "", 1)
		patched := make([]byte, 0, len(data))
		patched = append(patched, data[:l.start]...)
		patched = append(patched, encodeLiteral(remainder)...)
		patched = append(patched, data[l.end:]...)
		return patched
	}
	return data
}
