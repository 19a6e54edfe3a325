// network/connection.go
package network

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	DefaultSendBuffer   = 256
	DefaultWriteTimeout = 10 * time.Second
	// MaxMessageSize 单条入站消息的上限
	MaxMessageSize = 4096
)

var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrSendBufferFull   = errors.New("send buffer full")
)

// Connection is one client channel. Send only queues the frame.
type Connection interface {
	Send(data []byte) error
	Ping() error
	Close() error
	RemoteAddr() net.Addr
}

// WSConnection 基于 websocket 的连接，写操作由独立的 writePump 完成
type WSConnection struct {
	conn         *websocket.Conn
	send         chan []byte
	done         chan struct{}
	writeTimeout time.Duration
	closed       bool
	mutex        sync.Mutex
	closeOnce    sync.Once
}

func NewWSConnection(conn *websocket.Conn, sendBuffer int, writeTimeout time.Duration) *WSConnection {
	if sendBuffer <= 0 {
		sendBuffer = DefaultSendBuffer
	}
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	c := &WSConnection{
		conn:         conn,
		send:         make(chan []byte, sendBuffer),
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
	}
	conn.SetReadLimit(MaxMessageSize)
	go c.writePump()
	return c
}

func (c *WSConnection) Send(data []byte) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.closed {
		return ErrConnectionClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Ping 发送 websocket 心跳探测，WriteControl 可与其他写并发调用
func (c *WSConnection) Ping() error {
	if c.isClosed() {
		return ErrConnectionClosed
	}
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeTimeout))
}

// OnPong registers fn to run for every pong frame from the peer.
func (c *WSConnection) OnPong(fn func()) {
	c.conn.SetPongHandler(func(string) error {
		fn()
		return nil
	})
}

// ReadMessage blocks for the next text frame from the peer.
func (c *WSConnection) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

// Close stops accepting frames; writePump flushes what is already queued
// and then closes the socket.
func (c *WSConnection) Close() error {
	c.closeOnce.Do(func() {
		c.mutex.Lock()
		c.closed = true
		close(c.done)
		c.mutex.Unlock()
	})
	return nil
}

func (c *WSConnection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

func (c *WSConnection) isClosed() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.closed
}

func (c *WSConnection) writePump() {
	defer c.conn.Close()

	for {
		select {
		case <-c.done:
			c.drain()
			return
		case data := <-c.send:
			if err := c.write(data); err != nil {
				c.Close()
				return
			}
		}
	}
}

// drain 关闭前写出队列中剩余的消息，并发送关闭帧
func (c *WSConnection) drain() {
	for {
		select {
		case data := <-c.send:
			if err := c.write(data); err != nil {
				return
			}
		default:
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.writeTimeout))
			return
		}
	}
}

func (c *WSConnection) write(data []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}
