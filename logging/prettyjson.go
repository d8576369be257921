package logging

import (
	"bytes"
	"encoding/json"
	"io"
	"sync"
)

// PrettyJSONWriter re-indents each JSON log line zerolog hands it. It is
// meant for reading debug output by eye, not for throughput.
type PrettyJSONWriter struct {
	mu  sync.Mutex
	w   io.Writer
	buf bytes.Buffer
}

func NewPrettyJSONWriter(w io.Writer) *PrettyJSONWriter {
	return &PrettyJSONWriter{w: w}
}

func (p *PrettyJSONWriter) Write(line []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.buf.Reset()
	if err := json.Indent(&p.buf, bytes.TrimRight(line, "\n"), "", "  "); err != nil {
		// not JSON; pass it through rather than drop it
		return p.w.Write(line)
	}
	p.buf.WriteByte('\n')
	if _, err := p.w.Write(p.buf.Bytes()); err != nil {
		return 0, err
	}
	return len(line), nil
}
