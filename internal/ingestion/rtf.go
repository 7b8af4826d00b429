package ingestion

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// destinations whose content is metadata, not body text
var rtfSkipDestinations = map[string]bool{
	"fonttbl": true, "colortbl": true, "stylesheet": true, "info": true,
	"pict": true, "header": true, "footer": true, "listtable": true,
	"listoverridetable": true, "rsidtbl": true, "generator": true,
	"themedata": true, "colorschememapping": true, "latentstyles": true,
	"datastore": true, "xmlnstbl": true, "filetbl": true, "revtbl": true,
	"object": true, "fldinst": true,
}

type rtfGroup struct {
	skip   bool
	ucSkip int
}

// extractRTF strips control words and ignorable groups from an RTF document.
// Paragraph and line controls become newlines; \'hh escapes decode as cp1252.
func extractRTF(data []byte) (string, error) {
	s := string(data)
	if !strings.HasPrefix(strings.TrimSpace(s), "{\\rtf") {
		return "", errors.New("missing {\\rtf header")
	}

	var sb strings.Builder
	stack := []rtfGroup{{ucSkip: 1}}
	pendingSkip := 0

	cur := func() *rtfGroup { return &stack[len(stack)-1] }
	emit := func(str string) {
		if pendingSkip > 0 {
			pendingSkip--
			return
		}
		if !cur().skip {
			sb.WriteString(str)
		}
	}

	for i := 0; i < len(s); {
		c := s[i]
		switch c {
		case '{':
			stack = append(stack, *cur())
			i++
		case '}':
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
			i++
		case '\r', '\n':
			i++
		case '\\':
			i++
			if i >= len(s) {
				break
			}
			switch n := s[i]; {
			case n == '\\' || n == '{' || n == '}':
				emit(string(n))
				i++
			case n == '~':
				emit(" ")
				i++
			case n == '-' || n == '_':
				i++
			case n == '*':
				cur().skip = true
				i++
			case n == '\'':
				if i+2 < len(s) {
					if v, err := strconv.ParseUint(s[i+1:i+3], 16, 8); err == nil {
						r := charmap.Windows1252.DecodeByte(byte(v))
						emit(string(r))
					}
				}
				i += 3
			case n == '\n' || n == '\r':
				emit("\n")
				i++
			case isRTFLetter(n):
				start := i
				for i < len(s) && isRTFLetter(s[i]) {
					i++
				}
				word := s[start:i]
				paramStart := i
				if i < len(s) && (s[i] == '-' || isDigit(s[i])) {
					i++
					for i < len(s) && isDigit(s[i]) {
						i++
					}
				}
				param := s[paramStart:i]
				if i < len(s) && s[i] == ' ' {
					i++
				}
				applyRTFControl(word, param, cur(), emit, &pendingSkip)
			default:
				i++
			}
		default:
			size := 1
			if c >= utf8.RuneSelf {
				_, size = utf8.DecodeRuneInString(s[i:])
			}
			emit(s[i : i+size])
			i += size
		}
	}

	return tidyRTFText(sb.String()), nil
}

func applyRTFControl(word, param string, g *rtfGroup, emit func(string), pendingSkip *int) {
	switch word {
	case "par", "line", "sect", "page", "row":
		emit("\n")
	case "tab", "cell":
		emit("\t")
	case "emdash":
		emit("—")
	case "endash":
		emit("–")
	case "bullet":
		emit("•")
	case "lquote", "rquote":
		emit("'")
	case "ldblquote", "rdblquote":
		emit("\"")
	case "uc":
		if n, err := strconv.Atoi(param); err == nil {
			g.ucSkip = n
		}
	case "u":
		if n, err := strconv.Atoi(param); err == nil {
			if n < 0 {
				n += 65536
			}
			emit(string(rune(n)))
			*pendingSkip = g.ucSkip
		}
	default:
		if rtfSkipDestinations[word] {
			g.skip = true
		}
	}
}

// tidyRTFText trims each line and drops runs of blank lines
func tidyRTFText(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, l := range lines {
		l = strings.TrimRight(l, " \t")
		if strings.TrimSpace(l) == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, l)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func isRTFLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
