package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/summerhf/go-netty/transport"
)

func TestFactorySchemes(t *testing.T) {
	f := New()
	assert.ElementsMatch(t, transport.Schemes{"ws", "wss"}, f.Schemes())
}

func TestFactoryListenIsUnsupported(t *testing.T) {
	f := New()
	_, err := f.Listen(&transport.Options{})
	assert.Error(t, err)
}

func TestFactoryConnectRejectsWrongScheme(t *testing.T) {
	f := New()
	opts, err := transport.ParseOptions(context.Background(), "tcp://127.0.0.1:9999")
	require.NoError(t, err)

	_, err = f.Connect(opts)
	assert.Error(t, err)
}

func TestFactoryConnectAndUpgradeRoundTrip(t *testing.T) {
	accepted := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		accepted <- conn
	}))
	defer srv.Close()

	f := New()
	url := "ws://" + strings.TrimPrefix(srv.URL, "http://")
	opts, err := transport.ParseOptions(context.Background(), url)
	require.NoError(t, err)

	client, err := f.Connect(opts)
	require.NoError(t, err)
	defer client.Close()

	var serverConn *websocket.Conn
	select {
	case serverConn = <-accepted:
	case <-time.After(2 * time.Second):
		t.Fatal("server never accepted the upgrade")
	}
	serverTransport := Upgrade(serverConn, nil, nil)
	defer serverTransport.Close()

	_, err = client.Write([]byte("hello"))
	require.NoError(t, err)

	buf := make([]byte, 16)
	n, err := serverTransport.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))
}
