package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	socketFile = "daemon.sock"

	requestTimeout = 5 * time.Second
)

// Request types understood by the control socket.
const (
	RequestStatus   = "status"
	RequestJobs     = "jobs"
	RequestIgnore   = "ignore"
	RequestUnignore = "unignore"
	RequestRefresh  = "refresh"
)

// SocketFilePath returns the path to the control socket
func SocketFilePath(stateDir string) string {
	return filepath.Join(stateDir, socketFile)
}

// Request is one control request, encoded as a JSON line.
type Request struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Job  string `json:"job,omitempty"`
}

// JobEntry is a job as reported over the socket.
type JobEntry struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Ignored bool   `json:"ignored"`
}

// Response answers a Request.
type Response struct {
	ID       string     `json:"id"`
	OK       bool       `json:"ok"`
	Error    string     `json:"error,omitempty"`
	Observed bool       `json:"observed"`
	Status   string     `json:"status,omitempty"`
	Message  string     `json:"message,omitempty"`
	Jobs     []JobEntry `json:"jobs,omitempty"`
	Ignored  []string   `json:"ignored,omitempty"`
	LastPoll time.Time  `json:"last_poll,omitzero"`
	PollErr  string     `json:"poll_error,omitempty"`
}

// SocketServer serves control requests for a running pipeline.
type SocketServer struct {
	stateDir string
	pipeline *Pipeline
	listener net.Listener
	socket   os.FileInfo
	logger   Logger
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewSocketServer creates a control socket server for p.
func NewSocketServer(stateDir string, p *Pipeline, logger Logger) *SocketServer {
	return &SocketServer{
		stateDir: stateDir,
		pipeline: p,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start listens on the socket and serves requests in the background.
func (s *SocketServer) Start() error {
	socketPath := SocketFilePath(s.stateDir)

	os.Remove(socketPath)

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on socket: %w", err)
	}
	// The socket file may be replaced by a newer daemon before this one
	// stops, so Stop unlinks it only while it is still ours.
	if ul, ok := listener.(*net.UnixListener); ok {
		ul.SetUnlinkOnClose(false)
	}
	s.listener = listener
	if info, err := os.Stat(socketPath); err == nil {
		s.socket = info
	}

	if err := os.Chmod(socketPath, 0600); err != nil {
		warnf(s.logger, "failed to chmod socket: %v", err)
	}

	s.logger.Printf("socket server listening on %s", socketPath)

	go s.acceptLoop()

	return nil
}

// Stop closes the listener and removes the socket file unless another
// server has since taken its place.
func (s *SocketServer) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		if s.listener != nil {
			s.listener.Close()
		}
		socketPath := SocketFilePath(s.stateDir)
		if info, err := os.Stat(socketPath); err == nil && s.socket != nil && os.SameFile(info, s.socket) {
			os.Remove(socketPath)
		}
	})
}

func (s *SocketServer) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stopCh:
				return
			default:
				errorf(s.logger, "accept error: %v", err)
				continue
			}
		}

		go s.handleConnection(conn)
	}
}

func (s *SocketServer) handleConnection(conn net.Conn) {
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(requestTimeout))

	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)

	var req Request
	if err := decoder.Decode(&req); err != nil {
		warnf(s.logger, "failed to decode request: %v", err)
		encoder.Encode(Response{OK: false, Error: "invalid request"})
		return
	}

	debugf(s.logger, "socket request %s: %s %s", req.ID, req.Type, req.Job)

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	resp := s.handle(ctx, req)
	resp.ID = req.ID
	if err := encoder.Encode(resp); err != nil {
		s.logger.Printf("failed to write response %s: %v", req.ID, err)
	}
}

func (s *SocketServer) handle(ctx context.Context, req Request) Response {
	switch req.Type {
	case RequestStatus, RequestJobs:
		// both answered from the snapshot
	case RequestIgnore, RequestUnignore:
		if req.Job == "" {
			return Response{Error: "job name required"}
		}
		var err error
		if req.Type == RequestIgnore {
			err = s.pipeline.Ignore(ctx, req.Job)
		} else {
			err = s.pipeline.Unignore(ctx, req.Job)
		}
		if err != nil {
			return Response{Error: err.Error()}
		}
	case RequestRefresh:
		s.pipeline.Refresh()
		return Response{OK: true}
	default:
		return Response{Error: "unknown request type"}
	}

	snap, err := s.pipeline.Snapshot(ctx)
	if err != nil {
		return Response{Error: err.Error()}
	}
	resp := SnapshotResponse(snap)
	if req.Type != RequestJobs {
		resp.Jobs = nil
	}
	return resp
}

// SnapshotResponse converts a pipeline snapshot to its wire form.
func SnapshotResponse(snap Snapshot) Response {
	resp := Response{
		OK:       true,
		Observed: snap.Observed,
		Status:   string(snap.Status),
		Message:  snap.Message,
		Ignored:  snap.Ignored,
		LastPoll: snap.LastPoll.At,
	}
	if snap.LastPoll.Err != nil {
		resp.PollErr = snap.LastPoll.Err.Error()
	}
	for _, m := range snap.Jobs {
		resp.Jobs = append(resp.Jobs, JobEntry{
			Name:    m.Job.Name,
			Status:  string(m.Job.Status),
			Ignored: m.Ignored,
		})
	}
	return resp
}

// Send sends one request to the daemon serving stateDir and returns its
// response. A response with OK=false is returned as an error.
func Send(stateDir string, req Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", SocketFilePath(stateDir), requestTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(2 * requestTimeout))

	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if !resp.OK {
		return &resp, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

// IsDaemonSocketAvailable reports whether a daemon is running with its
// control socket in place.
func IsDaemonSocketAvailable(stateDir string) bool {
	if !IsRunning(stateDir) {
		return false
	}
	_, err := os.Stat(SocketFilePath(stateDir))
	return err == nil
}
