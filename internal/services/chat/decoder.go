package chat

import (
	"io"
	"unicode/utf8"
)

// readBufferSize is large enough that one flushed write of the backend,
// such as an additional data payload with several products, arrives as one chunk.
const readBufferSize = 64 * 1024

// chunkReader turns a response body into text chunks, one per read. A multi-byte
// rune split across two reads is held back and prefixed to the next chunk.
// Invalid bytes are passed through untouched.
type chunkReader struct {
	r     io.Reader
	buf   []byte
	carry []byte
	err   error
}

func newChunkReader(r io.Reader) *chunkReader {
	return &chunkReader{r: r, buf: make([]byte, readBufferSize)}
}

// Next returns the next non-empty chunk, or the terminal error of the body (io.EOF on completion)
func (c *chunkReader) Next() (string, error) {
	for {
		if c.err != nil {
			if len(c.carry) > 0 {
				rest := string(c.carry)
				c.carry = nil
				return rest, nil
			}
			return "", c.err
		}

		n, err := c.r.Read(c.buf)
		c.err = err
		if n == 0 {
			continue
		}

		data := append(c.carry, c.buf[:n]...)
		complete, rest := splitIncomplete(data)
		c.carry = append([]byte(nil), rest...)
		if len(complete) > 0 {
			return string(complete), nil
		}
	}
}

// splitIncomplete separates a trailing, not yet complete UTF-8 sequence
func splitIncomplete(data []byte) ([]byte, []byte) {
	for i := 1; i < utf8.UTFMax && i <= len(data); i++ {
		start := len(data) - i
		if !utf8.RuneStart(data[start]) {
			continue
		}
		if !utf8.FullRune(data[start:]) {
			return data[:start], data[start:]
		}
		break
	}
	return data, nil
}
