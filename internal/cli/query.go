package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log"

	"github.com/s22625/ciwatch/internal/daemon"
	"github.com/s22625/ciwatch/internal/model"
)

// query answers a status or jobs request, either from the running daemon
// or, with once set, by polling the CI server in-process.
func query(reqType string, once bool) (*daemon.Response, error) {
	if once {
		return pollOnce()
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if !daemon.IsDaemonSocketAvailable(cfg.StateDir) {
		return nil, withExitCode(ExitDaemonNotRunning,
			fmt.Errorf("daemon not running (start it with \"ciwatch start\" or use --once)"))
	}
	return daemon.Send(cfg.StateDir, daemon.Request{Type: reqType})
}

func pollOnce() (*daemon.Response, error) {
	cfg, err := loadPollConfig()
	if err != nil {
		return nil, err
	}

	server := model.Server{Host: cfg.Host, Username: cfg.Username, Password: cfg.Password}
	p := daemon.NewPipeline(server, newFactory(), cfg.Ignore, cfg.Interval, log.New(io.Discard, "", 0))
	snap, err := p.PollOnce()
	if err != nil {
		return nil, err
	}
	resp := daemon.SnapshotResponse(snap)
	return &resp, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
