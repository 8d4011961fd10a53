// Package tcp is the transport shim: it frames newline-terminated text
// lines over TCP and feeds accepted connections to the session engine.
package tcp

import (
	"bufio"
	"io"
	"net"
	"strings"
	"sync"
	"time"
)

// LineConn adapts one net.Conn to the line-oriented contract the core
// works with. Reads block until a full line arrives; writes carry a
// deadline so a wedged client cannot hold the pump forever.
type LineConn struct {
	conn         net.Conn
	reader       *bufio.Reader
	writeTimeout time.Duration

	closeOnce sync.Once
	closeErr  error
}

func NewLineConn(conn net.Conn, writeTimeout time.Duration) *LineConn {
	return &LineConn{
		conn:         conn,
		reader:       bufio.NewReader(conn),
		writeTimeout: writeTimeout,
	}
}

// ReadLine returns the next line without its terminator. A final line
// that ends in EOF instead of a newline is still delivered; the EOF is
// reported on the following call.
func (c *LineConn) ReadLine() (string, error) {
	line, err := c.reader.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (c *LineConn) WriteLine(line string) error {
	if c.writeTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}
	_, err := c.conn.Write([]byte(line + "\n"))
	return err
}

func (c *LineConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// Close is idempotent: the session teardown and the shutdown watcher may
// both call it.
func (c *LineConn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
