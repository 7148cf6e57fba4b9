package events

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// legacyEncodings are tried in order when input is not valid UTF-8.
var legacyEncodings = []encoding.Encoding{
	simplifiedchinese.GBK,
	simplifiedchinese.GB18030,
	traditionalchinese.Big5,
}

// toUTF8 normalizes subtitle and comment exports: strips BOMs, decodes
// UTF-16 when a BOM says so, and falls back to Chinese legacy code pages.
func toUTF8(b []byte) []byte {
	if bytes.HasPrefix(b, utf8BOM) {
		return b[len(utf8BOM):]
	}
	if len(b) >= 2 && ((b[0] == 0xFF && b[1] == 0xFE) || (b[0] == 0xFE && b[1] == 0xFF)) {
		dec := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
		if out, err := dec.Bytes(b); err == nil {
			return out
		}
	}
	if utf8.Valid(b) {
		return b
	}
	for _, enc := range legacyEncodings {
		out, err := enc.NewDecoder().Bytes(b)
		if err == nil && utf8.Valid(out) {
			return out
		}
	}
	return bytes.ToValidUTF8(b, []byte("�"))
}
