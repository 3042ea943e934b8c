package daemon

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

const (
	pidFile      = "daemon.pid"
	logFile      = "daemon.log"
	metadataFile = "daemon.json"
)

// Metadata describes a running daemon.
type Metadata struct {
	PID       int       `json:"pid"`
	StartedAt time.Time `json:"started_at"`
	Host      string    `json:"host"`
	Interval  string    `json:"interval"`
	HTTPAddr  string    `json:"http_addr,omitempty"`
	ExecPath  string    `json:"exec_path"`
}

// PIDFilePath returns the path to the PID file
func PIDFilePath(stateDir string) string {
	return filepath.Join(stateDir, pidFile)
}

// LogFilePath returns the path to the daemon log file
func LogFilePath(stateDir string) string {
	return filepath.Join(stateDir, logFile)
}

// MetadataFilePath returns the path to the daemon metadata file
func MetadataFilePath(stateDir string) string {
	return filepath.Join(stateDir, metadataFile)
}

// EnsureStateDir creates the state directory if it doesn't exist
func EnsureStateDir(stateDir string) error {
	return os.MkdirAll(stateDir, 0755)
}

// WritePID writes the current process PID to the PID file
func WritePID(stateDir string) error {
	if err := EnsureStateDir(stateDir); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	return os.WriteFile(PIDFilePath(stateDir), []byte(strconv.Itoa(os.Getpid())), 0644)
}

// ReadPID reads the PID from the PID file
func ReadPID(stateDir string) (int, error) {
	data, err := os.ReadFile(PIDFilePath(stateDir))
	if err != nil {
		return 0, err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID in file: %w", err)
	}

	return pid, nil
}

// RemovePID removes the PID file
func RemovePID(stateDir string) error {
	err := os.Remove(PIDFilePath(stateDir))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// RemovePIDIfOwned removes the PID file only if it still holds pid.
func RemovePIDIfOwned(stateDir string, pid int) error {
	current, err := ReadPID(stateDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if current != pid {
		return nil
	}
	return RemovePID(stateDir)
}

// WriteMetadata records how the running daemon was started.
func WriteMetadata(stateDir string, meta Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(MetadataFilePath(stateDir), data, 0644)
}

// ReadMetadata reads the metadata of the running daemon.
func ReadMetadata(stateDir string) (*Metadata, error) {
	data, err := os.ReadFile(MetadataFilePath(stateDir))
	if err != nil {
		return nil, err
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// removeMetadataIfOwned removes the metadata file only if it describes pid.
func removeMetadataIfOwned(stateDir string, pid int) {
	meta, err := ReadMetadata(stateDir)
	if err != nil || meta.PID != pid {
		return
	}
	os.Remove(MetadataFilePath(stateDir))
}

// IsProcessRunning checks if a process with the given PID is running
func IsProcessRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// On Unix, FindProcess always succeeds, so send signal 0 to check
	// whether the process actually exists.
	return process.Signal(syscall.Signal(0)) == nil
}

// IsRunning checks if the daemon is currently running for this state dir
func IsRunning(stateDir string) bool {
	pid, err := ReadPID(stateDir)
	if err != nil {
		return false
	}
	return IsProcessRunning(pid)
}

// GetRunningPID returns the PID of the running daemon, or 0 if not running
func GetRunningPID(stateDir string) int {
	pid, err := ReadPID(stateDir)
	if err != nil {
		return 0
	}
	if !IsProcessRunning(pid) {
		return 0
	}
	return pid
}
