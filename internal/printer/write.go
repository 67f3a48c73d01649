package printer

// Writer accumulates printed output and copies source fragments.
type Writer struct {
	src []byte
	buf []byte
}

// NewWriter creates a writer over src.
func NewWriter(src []byte) *Writer {
	return &Writer{
		src: src,
		buf: make([]byte, 0, len(src)+len(src)/8),
	}
}

// Bytes returns the accumulated output.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// WriteString appends s.
func (w *Writer) WriteString(s string) {
	w.buf = append(w.buf, s...)
}

// Newline writes a line break followed by indent.
func (w *Writer) Newline(indent string) {
	w.buf = append(w.buf, '\n')
	w.buf = append(w.buf, indent...)
}

// CopyRange copies source bytes [start, end), clamped to the source.
func (w *Writer) CopyRange(start, end int) {
	if start < 0 {
		start = 0
	}
	if end > len(w.src) {
		end = len(w.src)
	}
	if start >= end {
		return
	}
	w.buf = append(w.buf, w.src[start:end]...)
}
