package parser

import "bytes"

// lineBuffer splits a chunked stream into lines. Lines are handed out
// without their '\n' and are only valid for the duration of the callback.
type lineBuffer struct {
	buf []byte
}

func (l *lineBuffer) write(b []byte, fn func(line []byte)) {
	for len(b) > 0 {
		i := bytes.IndexByte(b, '\n')
		if i < 0 {
			l.buf = append(l.buf, b...)
			return
		}
		if len(l.buf) > 0 {
			l.buf = append(l.buf, b[:i]...)
			fn(l.buf)
			l.buf = l.buf[:0]
		} else {
			fn(b[:i])
		}
		b = b[i+1:]
	}
}

// flush hands out a final line that was not terminated by '\n'.
func (l *lineBuffer) flush(fn func(line []byte)) {
	if len(l.buf) > 0 {
		fn(l.buf)
		l.buf = l.buf[:0]
	}
}

func trimCR(line []byte) []byte {
	return bytes.TrimSuffix(line, []byte{'\r'})
}
