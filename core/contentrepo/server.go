package contentrepo

import (
	"context"
	"encoding/binary"
	"errors"
	"log/slog"
	"net"
	"sync"
)

// chunkSize is the server's read granularity: spec.md's "reads in chunks
// of up to 1024 bytes; each completed read produces one write request".
const chunkSize = 1024

// Server accepts TCP connections and turns each completed read into an
// Append call against a Repo, replying with the 8-byte big-endian offset.
type Server struct {
	ln     net.Listener
	repo   *Repo
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewServer wraps an already-listening net.Listener. Callers obtain the
// listener (e.g. net.Listen("tcp", addr)) so the bound address is known
// before Serve blocks.
func NewServer(ln net.Listener, repo *Repo, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{ln: ln, repo: repo, logger: logger}
}

// Serve accepts connections until ctx is cancelled or the listener errors.
// When ctx is cancelled or the listener is closed it waits for every
// in-flight connection handler to return and then returns nil; any other
// Accept error is returned at once, without waiting for the handlers.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.ln.Close()
	}()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				s.wg.Wait()
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				return nil
			}
			return err
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

// handleConn reads chunks until a zero-length read (client closed) or an
// error, issuing one Append and one 8-byte offset reply per chunk. The
// connection is closed once every outstanding write has been acknowledged.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	buf := make([]byte, chunkSize)
	for {
		n, err := conn.Read(buf)
		if n == 0 || err != nil {
			return
		}

		payload := append([]byte(nil), buf[:n]...)
		offset, aerr := s.repo.Append(ctx, payload)
		if aerr != nil {
			s.logger.Error("content repo append failed", slog.Any("error", aerr))
			return
		}

		var reply [8]byte
		binary.BigEndian.PutUint64(reply[:], offset)
		if _, werr := conn.Write(reply[:]); werr != nil {
			return
		}
	}
}
