package httpcodec

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Dechunk parses a complete chunked-transfer-encoded byte stream into
// its decoded body, per spec.md §4.5: successive
// "<hex-length>\r\n<bytes>\r\n" segments, stopping at the zero-length
// chunk. Trailers after the terminating chunk are ignored (spec.md §9
// accepts this as benign ambiguity).
func Dechunk(chunked []byte) ([]byte, error) {
	var body bytes.Buffer
	i := 0
	for i < len(chunked) {
		nl := bytes.Index(chunked[i:], []byte("\r\n"))
		if nl < 0 {
			return nil, fmt.Errorf("httpcodec: truncated chunk size line")
		}
		sizeLine := string(chunked[i : i+nl])
		if semi := strings.IndexByte(sizeLine, ';'); semi >= 0 {
			sizeLine = sizeLine[:semi]
		}
		size, err := strconv.ParseInt(strings.TrimSpace(sizeLine), 16, 64)
		if err != nil {
			return nil, fmt.Errorf("httpcodec: invalid chunk size %q: %w", sizeLine, err)
		}
		i += nl + 2

		if size == 0 {
			return body.Bytes(), nil
		}
		if i+int(size) > len(chunked) {
			return nil, fmt.Errorf("httpcodec: truncated chunk body")
		}
		body.Write(chunked[i : i+int(size)])
		i += int(size)

		if i+2 <= len(chunked) && chunked[i] == '\r' && chunked[i+1] == '\n' {
			i += 2
		}
	}
	return nil, fmt.Errorf("httpcodec: chunked stream missing terminating chunk")
}
