package scan

import (
	"bytes"
	"errors"
	"io"
)

// CountLines counts lines the way a text-mode line iterator would: "\n",
// "\r\n" and a lone "\r" each end a line, and a final line without a
// terminator still counts.
func CountLines(r io.Reader) (int, error) {
	buf := make([]byte, 32*1024)
	lines := 0
	prevCR := false
	var last byte
	seen := false

	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			if !prevCR && bytes.IndexByte(chunk, '\r') < 0 {
				lines += bytes.Count(chunk, []byte{'\n'})
			} else {
				for _, b := range chunk {
					if b == '\n' || prevCR {
						lines++
					}
					prevCR = b == '\r'
				}
			}
			last = chunk[n-1]
			seen = true
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err
		}
	}

	if prevCR {
		lines++
	}
	if seen && last != '\n' && last != '\r' {
		lines++
	}
	return lines, nil
}
