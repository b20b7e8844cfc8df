package wayland

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"

	"golang.org/x/sys/unix"
)

// byteOrder is the host byte order; the wire protocol is native endian.
var byteOrder = binary.NativeEndian

const headerSize = 8

// maxFDs bounds the ancillary buffer. libwayland sends at most 28 fds per
// message.
const maxFDs = 28

var errShortMessage = errors.New("message shorter than its arguments")

// message builds one request.
type message struct {
	opcode uint16
	buf    []byte
}

func newMessage(sender uint32, opcode uint16) *message {
	m := &message{opcode: opcode, buf: make([]byte, headerSize, 64)}
	byteOrder.PutUint32(m.buf[0:4], sender)
	return m
}

func (m *message) uint(v uint32) *message {
	m.buf = byteOrder.AppendUint32(m.buf, v)
	return m
}

func (m *message) int(v int32) *message {
	return m.uint(uint32(v))
}

// string appends a length-prefixed, NUL-terminated string padded to a
// 4-byte boundary.
func (m *message) string(s string) *message {
	m.uint(uint32(len(s) + 1))
	m.buf = append(m.buf, s...)
	m.buf = append(m.buf, 0)
	for len(m.buf)%4 != 0 {
		m.buf = append(m.buf, 0)
	}
	return m
}

// bytes writes the size and opcode word and returns the encoded request.
func (m *message) bytes() []byte {
	byteOrder.PutUint32(m.buf[4:8], uint32(len(m.buf))<<16|uint32(m.opcode))
	return m.buf
}

// header is the decoded first two words of an event.
type header struct {
	sender uint32
	opcode uint16
	size   int
}

func parseHeader(b []byte) (header, error) {
	word := byteOrder.Uint32(b[4:8])
	h := header{
		sender: byteOrder.Uint32(b[0:4]),
		opcode: uint16(word & 0xffff),
		size:   int(word >> 16),
	}
	if h.size < headerSize || h.size%4 != 0 {
		return h, fmt.Errorf("object %d opcode %d: invalid message size %d", h.sender, h.opcode, h.size)
	}
	return h, nil
}

// args decodes event arguments. The first decoding error sticks.
type args struct {
	data []byte
	err  error
}

func (a *args) uint() uint32 {
	if a.err != nil {
		return 0
	}
	if len(a.data) < 4 {
		a.err = errShortMessage
		return 0
	}
	v := byteOrder.Uint32(a.data)
	a.data = a.data[4:]
	return v
}

func (a *args) int() int32 {
	return int32(a.uint())
}

func (a *args) string() string {
	n := int(a.uint())
	if a.err != nil {
		return ""
	}
	if n == 0 {
		return ""
	}
	padded := (n + 3) &^ 3
	if len(a.data) < padded {
		a.err = errShortMessage
		return ""
	}
	s := string(a.data[:n-1])
	a.data = a.data[padded:]
	return s
}

// reader pulls bytes off the socket. File descriptors passed alongside are
// closed immediately since no event this client handles carries one.
type reader struct {
	conn *net.UnixConn
	buf  []byte
	oob  []byte
}

func newReader(conn *net.UnixConn) *reader {
	return &reader{
		conn: conn,
		buf:  make([]byte, 4096),
		oob:  make([]byte, unix.CmsgSpace(maxFDs*4)),
	}
}

func (r *reader) read() ([]byte, error) {
	n, oobn, _, _, err := r.conn.ReadMsgUnix(r.buf, r.oob)
	if oobn > 0 {
		closeRights(r.oob[:oobn])
	}
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, io.EOF
	}
	return r.buf[:n], nil
}

func closeRights(oob []byte) {
	msgs, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		return
	}
	for _, m := range msgs {
		fds, err := unix.ParseUnixRights(&m)
		if err != nil {
			continue
		}
		for _, fd := range fds {
			unix.Close(fd)
		}
	}
}
