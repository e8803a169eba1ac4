package ws

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wxmcp/logx"
)

func startTestServer(t *testing.T) *Server {
	t.Helper()
	srv := NewServer("127.0.0.1:0", logx.NopLogger{})
	require.NoError(t, srv.Start())
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func TestDialSendReceive(t *testing.T) {
	srv := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	clientConn, err := Dial(ctx, "ws://"+srv.Addr().String()+"/", logx.NopLogger{})
	require.NoError(t, err)
	defer clientConn.Close()

	serverConn, err := srv.Accept(ctx)
	require.NoError(t, err)
	defer serverConn.Close()

	require.NoError(t, clientConn.Send([]byte(`{"method":"ping"}`)))
	msg, err := serverConn.Receive(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"method":"ping"}`, string(msg))

	require.NoError(t, serverConn.Send([]byte(`{"result":{}}`)))
	msg, err = clientConn.Receive(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"result":{}}`, string(msg))
}

func TestHealthz(t *testing.T) {
	srv := startTestServer(t)

	resp, err := http.Get(fmt.Sprintf("http://%s/healthz", srv.Addr()))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestReceiveAfterPeerCloseIsEOF(t *testing.T) {
	srv := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	clientConn, err := Dial(ctx, "ws://"+srv.Addr().String()+"/", logx.NopLogger{})
	require.NoError(t, err)

	serverConn, err := srv.Accept(ctx)
	require.NoError(t, err)
	defer serverConn.Close()

	require.NoError(t, clientConn.Close())

	_, err = serverConn.Receive(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestUpgradeDuringShutdownIsRejected(t *testing.T) {
	srv := NewServer("127.0.0.1:0", logx.NopLogger{})
	require.NoError(t, srv.Start())
	require.NoError(t, srv.Close())

	// The upgrade endpoint can still see requests while shutdown drains
	// in-flight handlers; route one straight at the handler.
	ts := httptest.NewServer(http.HandlerFunc(srv.handleUpgrade))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	clientConn, err := Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/", logx.NopLogger{})
	require.NoError(t, err)
	defer clientConn.Close()

	// The handler rejects and closes the connection instead of handing it to
	// a closed accept queue.
	_, err = clientConn.Receive(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestAcceptAfterClose(t *testing.T) {
	srv := NewServer("127.0.0.1:0", logx.NopLogger{})
	require.NoError(t, srv.Start())
	require.NoError(t, srv.Close())

	_, err := srv.Accept(context.Background())
	assert.EqualError(t, err, "ws server closed")
}

func TestAcceptContextCancelled(t *testing.T) {
	srv := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := srv.Accept(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
