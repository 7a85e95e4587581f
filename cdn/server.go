// Package cdn rewrites public paths and invalidates CDN caches.
package cdn

import (
	"context"
	"strings"

	gomedia "github.com/shoraid/go-mediaprovider"
)

// ServerFlushIdentifier is returned by Server flushes, which complete
// immediately.
const ServerFlushIdentifier = "server"

// Server serves files straight from a web server, optionally behind a path
// prefix. There is no cache to invalidate.
type Server struct {
	path string
}

var _ gomedia.CDN = (*Server)(nil)

// NewServer creates a CDN prefixing every path with path, e.g. "/uploads/media"
// or "https://static.example.com".
func NewServer(path string) *Server {
	return &Server{path: strings.TrimRight(path, "/")}
}

func (s *Server) Path(relativePath string, _ bool) string {
	return s.path + "/" + strings.TrimLeft(relativePath, "/")
}

func (s *Server) Flush(context.Context, string) (string, error) {
	return ServerFlushIdentifier, nil
}

func (s *Server) FlushByString(context.Context, string) (string, error) {
	return ServerFlushIdentifier, nil
}

func (s *Server) FlushPaths(context.Context, []string) (string, error) {
	return ServerFlushIdentifier, nil
}

func (s *Server) FlushStatus(context.Context, string) (gomedia.CDNStatus, error) {
	return gomedia.CDNStatusOK, nil
}
