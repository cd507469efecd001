package rcon

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"time"
)

// Source RCON packet types. Auth responses reuse the command type id,
// which is why readers must match on the request id rather than the
// type alone.
const (
	packetTypeResponse int32 = 0
	packetTypeCommand  int32 = 2
	packetTypeAuth     int32 = 3
)

const (
	// packet length field covers id + type + body + two trailing NULs
	packetHeaderSize = 10
	maxPayloadSize   = 4096
)

var (
	ErrAuthFailed = errors.New("rcon auth rejected")
	ErrBadPacket  = errors.New("rcon malformed packet")
)

// Session is one authenticated RCON connection. Callers open a fresh
// session per command and close it right after: vanilla servers cap
// concurrent RCON connections and drop idle ones on restart, so there
// is nothing to gain from pooling.
type Session struct {
	conn    net.Conn
	timeout time.Duration
	nextID  int32
}

// Dial connects to addr and completes the auth handshake with password.
func Dial(ctx context.Context, addr, password string, timeout time.Duration) (*Session, error) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	s := &Session{conn: conn, timeout: timeout, nextID: 1}
	if err := s.auth(password); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *Session) auth(password string) error {
	id, err := s.writePacket(packetTypeAuth, password)
	if err != nil {
		return fmt.Errorf("send auth: %w", err)
	}
	for {
		respID, respType, _, err := s.readPacket()
		if err != nil {
			return fmt.Errorf("read auth reply: %w", err)
		}
		// Some servers send an empty RESPONSE_VALUE before the auth
		// reply; skip it.
		if respType == packetTypeResponse {
			continue
		}
		if respID == -1 {
			return ErrAuthFailed
		}
		if respID != id {
			return fmt.Errorf("%w: auth reply id %d, want %d", ErrBadPacket, respID, id)
		}
		return nil
	}
}

// Command sends a single command and returns the server's textual reply.
func (s *Session) Command(cmd string) (string, error) {
	id, err := s.writePacket(packetTypeCommand, cmd)
	if err != nil {
		return "", fmt.Errorf("send command: %w", err)
	}
	respID, _, body, err := s.readPacket()
	if err != nil {
		return "", fmt.Errorf("read command reply: %w", err)
	}
	if respID != id {
		return "", fmt.Errorf("%w: reply id %d, want %d", ErrBadPacket, respID, id)
	}
	return body, nil
}

func (s *Session) Close() error {
	if s == nil || s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *Session) writePacket(typ int32, body string) (int32, error) {
	if len(body) > maxPayloadSize {
		return 0, fmt.Errorf("%w: payload too large (%d bytes)", ErrBadPacket, len(body))
	}
	id := s.nextID
	s.nextID++

	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, int32(len(body)+packetHeaderSize))
	_ = binary.Write(&buf, binary.LittleEndian, id)
	_ = binary.Write(&buf, binary.LittleEndian, typ)
	buf.WriteString(body)
	buf.Write([]byte{0, 0})

	if err := s.conn.SetWriteDeadline(time.Now().Add(s.timeout)); err != nil {
		return 0, err
	}
	if _, err := s.conn.Write(buf.Bytes()); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Session) readPacket() (id int32, typ int32, body string, err error) {
	if err := s.conn.SetReadDeadline(time.Now().Add(s.timeout)); err != nil {
		return 0, 0, "", err
	}

	var length int32
	if err := binary.Read(s.conn, binary.LittleEndian, &length); err != nil {
		return 0, 0, "", err
	}
	if length < packetHeaderSize || length > maxPayloadSize+packetHeaderSize {
		return 0, 0, "", fmt.Errorf("%w: length %d", ErrBadPacket, length)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(s.conn, payload); err != nil {
		return 0, 0, "", err
	}

	id = int32(binary.LittleEndian.Uint32(payload[0:4]))
	typ = int32(binary.LittleEndian.Uint32(payload[4:8]))
	body = string(bytes.TrimRight(payload[8:], "\x00"))
	return id, typ, body, nil
}
