package extract

import (
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

type textEncoding struct {
	name    string
	decoder func() *encoding.Decoder
}

// textEncodings is tried in order; the first successful decode wins.
var textEncodings = []textEncoding{
	{name: "utf-8"},
	{name: "latin-1", decoder: charmap.ISO8859_1.NewDecoder},
	{name: "cp1252", decoder: charmap.Windows1252.NewDecoder},
}

// decodeText returns data as a UTF-8 string along with the encoding that
// decoded it.
func decodeText(data []byte) (string, string, bool) {
	for _, enc := range textEncodings {
		if enc.decoder == nil {
			if utf8.Valid(data) {
				return string(data), enc.name, true
			}
			continue
		}
		out, err := enc.decoder().Bytes(data)
		if err != nil {
			continue
		}
		return string(out), enc.name, true
	}
	return "", "", false
}
