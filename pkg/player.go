package pkg

import (
	"net"

	petname "github.com/dustinkirkland/golang-petname"
	"go.uber.org/zap"
)

// ServerConn is one TCP client of the server.
type ServerConn struct {
	Conn net.Conn
	Name string
	Out  chan MessageTransport

	logger *zap.Logger
}

func NewServerConn(conn net.Conn, logger *zap.Logger) *ServerConn {
	name := petname.Generate(2, "-")
	return &ServerConn{
		Conn:   conn,
		Name:   name,
		Out:    make(chan MessageTransport, ConnQueueSize),
		logger: orNop(logger).With(zap.String("conn", name)),
	}
}

// HandleRead passes every decoded envelope to handle until the connection closes.
func (p *ServerConn) HandleRead(handle func(MessageTransport)) {
	scanner := newLineScanner(p.Conn)
	for scanner.Scan() {
		var mt MessageTransport
		if err := Decode(scanner.Bytes(), &mt); err != nil {
			p.logger.Warn("undecodable message", zap.Error(err))
			p.Out <- MessageTransport{MsgType: TypeMessageError, Data: Encode(MessageError{Message: err.Error()})}
			continue
		}
		handle(mt)
	}
	if err := scanner.Err(); err != nil {
		p.logger.Info("read stopped", zap.Error(err))
	}
}

func (p *ServerConn) HandleWrite() {
	for message := range p.Out {
		if err := writeMessage(p.Conn, message); err != nil {
			p.logger.Warn("failed to write", zap.Stringer("type", message.MsgType), zap.Error(err))
		}
	}
}

func (p *ServerConn) Disconnect() {
	p.Conn.Close()
}
