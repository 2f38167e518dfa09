package rspfile

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

var (
	utf8BOM    = []byte{0xEF, 0xBB, 0xBF}
	utf16LEBOM = []byte{0xFF, 0xFE}
)

// Decode turns raw response file bytes into text. Toolchains write these
// files in different encodings, so the first rule that applies wins:
//
//  1. valid UTF-8 (a leading UTF-8 BOM is dropped)
//  2. UTF-16LE with a byte-order mark (the mark is dropped)
//  3. UTF-16LE without a mark, when the length is even
//  4. UTF-8 with invalid sequences replaced by U+FFFD
func Decode(data []byte) string {
	if utf8.Valid(data) {
		return string(bytes.TrimPrefix(data, utf8BOM))
	}

	if bytes.HasPrefix(data, utf16LEBOM) {
		return decodeUTF16LE(data[len(utf16LEBOM):])
	}

	if len(data)%2 == 0 {
		return decodeUTF16LE(data)
	}

	return decodeLossyUTF8(data)
}

// decodeUTF16LE decodes little-endian code units. A dangling odd byte is
// ignored and unpaired surrogates become U+FFFD.
func decodeUTF16LE(data []byte) string {
	data = data[:len(data)&^1]
	out, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(data)
	if err != nil {
		return decodeLossyUTF8(data)
	}
	return string(out)
}

func decodeLossyUTF8(data []byte) string {
	out, err := unicode.UTF8.NewDecoder().Bytes(data)
	if err != nil {
		return strings.ToValidUTF8(string(data), string(utf8.RuneError))
	}
	return string(out)
}

// Normalize flattens response file text into a single argument string:
// lines are trimmed, blank lines dropped and the rest joined by one space.
func Normalize(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, " ")
}
