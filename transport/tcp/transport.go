package tcp

import (
	"net"

	"github.com/summerhf/go-netty/transport"
)

type tcpTransport struct {
	*net.TCPConn
}

func (t *tcpTransport) Writev(buffs transport.Buffers) (int64, error) {
	return buffs.Buffers.WriteTo(t.TCPConn)
}

func (t *tcpTransport) Flush() error {
	return nil
}

func (t *tcpTransport) RawTransport() interface{} {
	return t.TCPConn
}

func (t *tcpTransport) applyOptions(opts *Options) (*tcpTransport, error) {
	if err := t.SetKeepAlive(opts.KeepAlive); err != nil {
		return t, err
	}
	if err := t.SetKeepAlivePeriod(opts.KeepAlivePeriod); err != nil {
		return t, err
	}
	if err := t.SetLinger(opts.Linger); err != nil {
		return t, err
	}
	if err := t.SetNoDelay(opts.NoDelay); err != nil {
		return t, err
	}
	if opts.SockBuf > 0 {
		if err := t.SetReadBuffer(opts.SockBuf); err != nil {
			return t, err
		}
		if err := t.SetWriteBuffer(opts.SockBuf); err != nil {
			return t, err
		}
	}
	return t, nil
}
