package telegram

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/unicode/runenames"
)

var errEscape = errors.New("unicode-escape decode")

// decodeUnicodeEscape mirrors the "unicode-escape" text codec: every byte is
// taken as a Latin-1 character and backslash sequences are interpreted.
// Unknown escapes are kept verbatim, including the backslash.
func decodeUnicodeEscape(src []byte) ([]rune, error) {
	out := make([]rune, 0, len(src))

	for i := 0; i < len(src); {
		c := src[i]
		i++
		if c != '\\' {
			out = append(out, rune(c))
			continue
		}

		if i >= len(src) {
			return nil, fmt.Errorf("%w: \\ at end of string", errEscape)
		}
		c = src[i]
		i++

		switch c {
		case '\n':
			// line continuation
		case '\\', '\'', '"':
			out = append(out, rune(c))
		case 'a':
			out = append(out, '\a')
		case 'b':
			out = append(out, '\b')
		case 'f':
			out = append(out, '\f')
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		case 'v':
			out = append(out, '\v')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			value := rune(c - '0')
			for n := 0; n < 2 && i < len(src) && src[i] >= '0' && src[i] <= '7'; n++ {
				value = value*8 + rune(src[i]-'0')
				i++
			}
			out = append(out, value)
		case 'x', 'u', 'U':
			width := map[byte]int{'x': 2, 'u': 4, 'U': 8}[c]
			value, consumed, err := readHex(src[i:], width)
			if err != nil {
				return nil, fmt.Errorf("%w: truncated \\%c escape at position %d", errEscape, c, i-2)
			}
			i += consumed
			if value > 0x10FFFF {
				return nil, fmt.Errorf("%w: illegal unicode character at position %d", errEscape, i-consumed-2)
			}
			out = append(out, value)
		case 'N':
			value, consumed, err := readNamedEscape(src[i:])
			if err != nil {
				return nil, fmt.Errorf("%w: %v", errEscape, err)
			}
			i += consumed
			out = append(out, value)
		default:
			out = append(out, '\\', rune(c))
		}
	}

	return out, nil
}

func readHex(src []byte, width int) (rune, int, error) {
	if len(src) < width {
		return 0, 0, errEscape
	}

	var value rune
	for n := 0; n < width; n++ {
		d, ok := hexDigit(src[n])
		if !ok {
			return 0, 0, errEscape
		}
		value = value<<4 | d
	}
	return value, width, nil
}

func hexDigit(c byte) (rune, bool) {
	switch {
	case c >= '0' && c <= '9':
		return rune(c - '0'), true
	case c >= 'a' && c <= 'f':
		return rune(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return rune(c-'A') + 10, true
	default:
		return 0, false
	}
}

// readNamedEscape parses "{NAME}" after \N. Only names of characters that fit
// into Latin-1 are resolved; anything else could never be encoded afterwards.
func readNamedEscape(src []byte) (rune, int, error) {
	if len(src) == 0 || src[0] != '{' {
		return 0, 0, errors.New("malformed \\N character escape")
	}
	end := -1
	for n := 1; n < len(src); n++ {
		if src[n] == '}' {
			end = n
			break
		}
	}
	if end <= 1 {
		return 0, 0, errors.New("malformed \\N character escape")
	}

	name := strings.ToUpper(string(src[1:end]))
	r, ok := latin1Names()[name]
	if !ok {
		return 0, 0, fmt.Errorf("unknown or non latin-1 character name %q", name)
	}
	return r, end + 1, nil
}

var (
	latin1NamesOnce sync.Once
	latin1NamesMap  map[string]rune
)

func latin1Names() map[string]rune {
	latin1NamesOnce.Do(func() {
		latin1NamesMap = make(map[string]rune, 0x100)
		for r := rune(0); r <= 0xFF; r++ {
			name := runenames.Name(r)
			if name == "" || strings.HasPrefix(name, "<") {
				continue
			}
			latin1NamesMap[name] = r
		}
		for r, aliases := range latin1Aliases {
			for _, alias := range aliases {
				latin1NamesMap[alias] = r
			}
		}
	})
	return latin1NamesMap
}

// latin1Aliases lists the NameAliases.txt entries (corrections, control
// names and abbreviations) for code points up to U+00FF. runenames only
// knows formal names, and control characters have none.
var latin1Aliases = map[rune][]string{
	0x00: {"NULL", "NUL"},
	0x01: {"START OF HEADING", "SOH"},
	0x02: {"START OF TEXT", "STX"},
	0x03: {"END OF TEXT", "ETX"},
	0x04: {"END OF TRANSMISSION", "EOT"},
	0x05: {"ENQUIRY", "ENQ"},
	0x06: {"ACKNOWLEDGE", "ACK"},
	0x07: {"ALERT", "BEL"},
	0x08: {"BACKSPACE", "BS"},
	0x09: {"CHARACTER TABULATION", "HORIZONTAL TABULATION", "HT", "TAB"},
	0x0A: {"LINE FEED", "NEW LINE", "END OF LINE", "LF", "NL", "EOL"},
	0x0B: {"LINE TABULATION", "VERTICAL TABULATION", "VT"},
	0x0C: {"FORM FEED", "FF"},
	0x0D: {"CARRIAGE RETURN", "CR"},
	0x0E: {"SHIFT OUT", "LOCKING-SHIFT ONE", "SO"},
	0x0F: {"SHIFT IN", "LOCKING-SHIFT ZERO", "SI"},
	0x10: {"DATA LINK ESCAPE", "DLE"},
	0x11: {"DEVICE CONTROL ONE", "DC1"},
	0x12: {"DEVICE CONTROL TWO", "DC2"},
	0x13: {"DEVICE CONTROL THREE", "DC3"},
	0x14: {"DEVICE CONTROL FOUR", "DC4"},
	0x15: {"NEGATIVE ACKNOWLEDGE", "NAK"},
	0x16: {"SYNCHRONOUS IDLE", "SYN"},
	0x17: {"END OF TRANSMISSION BLOCK", "ETB"},
	0x18: {"CANCEL", "CAN"},
	0x19: {"END OF MEDIUM", "EOM"},
	0x1A: {"SUBSTITUTE", "SUB"},
	0x1B: {"ESCAPE", "ESC"},
	0x1C: {"INFORMATION SEPARATOR FOUR", "FILE SEPARATOR", "FS"},
	0x1D: {"INFORMATION SEPARATOR THREE", "GROUP SEPARATOR", "GS"},
	0x1E: {"INFORMATION SEPARATOR TWO", "RECORD SEPARATOR", "RS"},
	0x1F: {"INFORMATION SEPARATOR ONE", "UNIT SEPARATOR", "US"},
	0x20: {"SP"},
	0x7F: {"DELETE", "DEL"},
	0x80: {"PADDING CHARACTER", "PAD"},
	0x81: {"HIGH OCTET PRESET", "HOP"},
	0x82: {"BREAK PERMITTED HERE", "BPH"},
	0x83: {"NO BREAK HERE", "NBH"},
	0x84: {"INDEX", "IND"},
	0x85: {"NEXT LINE", "NEL"},
	0x86: {"START OF SELECTED AREA", "SSA"},
	0x87: {"END OF SELECTED AREA", "ESA"},
	0x88: {"CHARACTER TABULATION SET", "HORIZONTAL TABULATION SET", "HTS"},
	0x89: {"CHARACTER TABULATION WITH JUSTIFICATION", "HORIZONTAL TABULATION WITH JUSTIFICATION", "HTJ"},
	0x8A: {"LINE TABULATION SET", "VERTICAL TABULATION SET", "VTS"},
	0x8B: {"PARTIAL LINE FORWARD", "PARTIAL LINE DOWN", "PLD"},
	0x8C: {"PARTIAL LINE BACKWARD", "PARTIAL LINE UP", "PLU"},
	0x8D: {"REVERSE LINE FEED", "REVERSE INDEX", "RI"},
	0x8E: {"SINGLE SHIFT TWO", "SINGLE-SHIFT-2", "SS2"},
	0x8F: {"SINGLE SHIFT THREE", "SINGLE-SHIFT-3", "SS3"},
	0x90: {"DEVICE CONTROL STRING", "DCS"},
	0x91: {"PRIVATE USE ONE", "PRIVATE USE-1", "PU1"},
	0x92: {"PRIVATE USE TWO", "PRIVATE USE-2", "PU2"},
	0x93: {"SET TRANSMIT STATE", "STS"},
	0x94: {"CANCEL CHARACTER", "CCH"},
	0x95: {"MESSAGE WAITING", "MW"},
	0x96: {"START OF GUARDED AREA", "START OF PROTECTED AREA", "SPA"},
	0x97: {"END OF GUARDED AREA", "END OF PROTECTED AREA", "EPA"},
	0x98: {"START OF STRING", "SOS"},
	0x99: {"SINGLE GRAPHIC CHARACTER INTRODUCER", "SGC"},
	0x9A: {"SINGLE CHARACTER INTRODUCER", "SCI"},
	0x9B: {"CONTROL SEQUENCE INTRODUCER", "CSI"},
	0x9C: {"STRING TERMINATOR", "ST"},
	0x9D: {"OPERATING SYSTEM COMMAND", "OSC"},
	0x9E: {"PRIVACY MESSAGE", "PM"},
	0x9F: {"APPLICATION PROGRAM COMMAND", "APC"},
	0xA0: {"NBSP"},
	0xAD: {"SHY"},
}
