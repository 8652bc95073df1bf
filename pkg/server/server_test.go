package server

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestServer(t *testing.T, handler http.Handler) (*Server, string) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	srv := &Server{
		Server: http.Server{Handler: handler},
		Logger: logger,
	}

	go srv.Server.Serve(ln)

	return srv, "http://" + ln.Addr().String()
}

func TestShutdownDrainsInFlightRequests(t *testing.T) {
	entered := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusNoContent)
	})

	srv, url := startTestServer(t, handler)

	type result struct {
		code int
		err  error
	}

	done := make(chan result, 1)
	go func() {
		resp, err := http.Get(url)
		if err != nil {
			done <- result{err: err}
			return
		}
		resp.Body.Close()
		done <- result{code: resp.StatusCode}
	}()

	<-entered
	srv.Shutdown(context.Background())

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, http.StatusNoContent, res.code, "shutdown waits for the in-flight request to finish")
}

func TestShutdownWithDeadContextDoesNotDrain(t *testing.T) {
	// Pins down why the caller must hand Shutdown a context that is still
	// alive: a cancelled one gives up on in-flight requests immediately.
	entered := make(chan struct{})
	release := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		w.WriteHeader(http.StatusNoContent)
	})

	srv, url := startTestServer(t, handler)

	go func() {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
		}
	}()

	<-entered

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	returned := make(chan struct{})
	go func() {
		srv.Shutdown(ctx)
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown kept waiting on a dead context")
	}

	close(release)
}
