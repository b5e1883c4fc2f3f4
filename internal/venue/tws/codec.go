package tws

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// maxFrameSize guards against a corrupt length prefix.
const maxFrameSize = 16 << 20

var errFrameTooLarge = errors.New("tws: frame exceeds maximum size")

// handshake returns the bytes that open a session: the "API" prefix followed
// by the length-prefixed supported version range.
func handshake() []byte {
	version := fmt.Sprintf("v%d..%d", minClientVersion, maxClientVersion)
	buf := make([]byte, 0, 4+4+len(version))
	buf = append(buf, "API\x00"...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(version)))
	return append(buf, version...)
}

// message accumulates null-terminated fields of one outgoing frame.
type message struct {
	fields []string
}

func newMessage(id int) *message {
	m := &message{}
	return m.num(id)
}

func (m *message) str(s string) *message {
	m.fields = append(m.fields, s)
	return m
}

func (m *message) num(v int) *message {
	return m.str(strconv.Itoa(v))
}

func (m *message) num64(v int64) *message {
	return m.str(strconv.FormatInt(v, 10))
}

func (m *message) flag(v bool) *message {
	if v {
		return m.str("1")
	}
	return m.str("0")
}

func (m *message) dec(v decimal.Decimal) *message {
	return m.str(v.String())
}

// empty appends n unset fields.
func (m *message) empty(n int) *message {
	for i := 0; i < n; i++ {
		m.fields = append(m.fields, "")
	}
	return m
}

// encode returns the length-prefixed frame.
func (m *message) encode() []byte {
	size := 0
	for _, f := range m.fields {
		size += len(f) + 1
	}
	buf := make([]byte, 4, 4+size)
	binary.BigEndian.PutUint32(buf, uint32(size))
	for _, f := range m.fields {
		buf = append(buf, f...)
		buf = append(buf, 0)
	}
	return buf
}

// readFrame reads one length-prefixed frame and splits it into fields.
func readFrame(r *bufio.Reader) ([]string, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint32(hdr[:])
	if size > maxFrameSize {
		return nil, errFrameTooLarge
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	fields := strings.Split(string(payload), "\x00")
	// a well-formed payload ends with a terminator, leaving one empty tail
	if n := len(fields); n > 0 && fields[n-1] == "" {
		fields = fields[:n-1]
	}
	return fields, nil
}

// fieldReader decodes fields in order. The first decoding error sticks and
// later reads return zero values.
type fieldReader struct {
	fields []string
	pos    int
	err    error
}

func newFieldReader(fields []string) *fieldReader {
	return &fieldReader{fields: fields}
}

func (r *fieldReader) str() string {
	if r.err != nil {
		return ""
	}
	if r.pos >= len(r.fields) {
		r.err = fmt.Errorf("tws: message truncated at field %d", r.pos)
		return ""
	}
	s := r.fields[r.pos]
	r.pos++
	return s
}

func (r *fieldReader) skip(n int) {
	for i := 0; i < n; i++ {
		r.str()
	}
}

func (r *fieldReader) num() int {
	return int(r.num64())
}

func (r *fieldReader) num64() int64 {
	s := r.str()
	if r.err != nil || s == "" {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		r.err = fmt.Errorf("tws: field %d: %w", r.pos-1, err)
	}
	return v
}

func (r *fieldReader) dec() decimal.Decimal {
	s := r.str()
	if r.err != nil || s == "" {
		return decimal.Zero
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		r.err = fmt.Errorf("tws: field %d: %w", r.pos-1, err)
	}
	return v
}
