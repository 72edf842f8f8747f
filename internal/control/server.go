package control

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"syscall"

	"github.com/charmbracelet/log"
)

// maxRequestBytes sizes the buffered reader each client's JSON decoder reads
// through. It does not cap the length of a request: the decoder reads on
// until one JSON value is complete, however long it is.
const maxRequestBytes = 4096

// Server accepts control-plane connections on a local TCP port and serves
// each on its own goroutine (spec §5 "one per connected control client"),
// grounded on the pack's accept-loop/per-client dispatch shape in
// server.go, adapted from AGW binary framing to newline-delimited JSON.
type Server struct {
	log     *log.Logger
	handler *Handler

	mu       sync.Mutex
	listener net.Listener
}

func NewServer(logger *log.Logger, handler *Handler) *Server {
	return &Server{log: logger, handler: handler}
}

// ListenAndServe binds addr (e.g. "127.0.0.1:7878") and blocks, serving
// clients until the listener is closed via Close.
func (s *Server) ListenAndServe(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("control: listen on %s: %w", addr, err)
	}

	if tcpListener, ok := listener.(*net.TCPListener); ok {
		if file, err := tcpListener.File(); err == nil {
			syscall.SetsockoptInt(int(file.Fd()), syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 1)
			file.Close()
		}
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.log.Info("control façade listening", "addr", addr)

	for {
		conn, err := listener.Accept()
		if err != nil {
			return nil
		}
		go s.serveClient(conn)
	}
}

// Close stops accepting new connections; in-flight clients finish their
// current request.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

func (s *Server) serveClient(conn net.Conn) {
	defer conn.Close()

	dec := json.NewDecoder(bufio.NewReaderSize(conn, maxRequestBytes))
	enc := json.NewEncoder(conn)

	for {
		var req request
		err := dec.Decode(&req)
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			// spec §7 kind 5: malformed JSON never changes state.
			enc.Encode(fail(fmt.Sprintf("JSON parse error: %s", err)))
			return
		}

		resp := s.handler.dispatch(req)
		if err := enc.Encode(resp); err != nil {
			return
		}
	}
}
