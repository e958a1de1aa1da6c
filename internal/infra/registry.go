package infra

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/eliteGoblin/focusd/app_block/internal/domain"
)

const registryDir = "/var/tmp"

// FileRegistry implements domain.DaemonRegistry with a JSON file so the
// CLI can find the running monitor daemon.
type FileRegistry struct {
	path           string
	processManager domain.ProcessManager
}

// NewFileRegistry creates a registry whose file name is derived from the
// hostname and user, so two users on one host do not collide.
func NewFileRegistry(pm domain.ProcessManager) domain.DaemonRegistry {
	hostname, _ := os.Hostname()
	hash := md5.Sum([]byte(fmt.Sprintf("appblock-registry-%s-%d", hostname, os.Getuid())))
	filename := ".appblock_" + hex.EncodeToString(hash[:])[:8] + ".json"

	return &FileRegistry{
		path:           filepath.Join(registryDir, filename),
		processManager: pm,
	}
}

// NewFileRegistryWithPath creates a registry at a specific path (for testing).
func NewFileRegistryWithPath(path string, pm domain.ProcessManager) domain.DaemonRegistry {
	return &FileRegistry{
		path:           path,
		processManager: pm,
	}
}

// GetRegistryPath returns the registry file path.
func (r *FileRegistry) GetRegistryPath() string {
	return r.path
}

// Register records the daemon's PID, replacing any previous entry.
func (r *FileRegistry) Register(daemon domain.Daemon) error {
	return r.withLock(func() error {
		started := daemon.StartedAt
		if started.IsZero() {
			started = time.Now()
		}
		entry := &domain.RegistryEntry{
			Version:       1,
			PID:           daemon.PID,
			StartedAt:     started.Unix(),
			LastHeartbeat: time.Now().Unix(),
			AppVersion:    daemon.AppVersion,
			Mode:          "user",
		}
		if os.Geteuid() == 0 {
			entry.Mode = "system"
		}
		return r.atomicWrite(entry)
	})
}

// UpdateHeartbeat updates timestamp for liveness check.
func (r *FileRegistry) UpdateHeartbeat() error {
	return r.withLock(func() error {
		entry, err := r.Get()
		if err != nil {
			return err
		}
		if entry == nil {
			return fmt.Errorf("daemon not registered")
		}
		entry.LastHeartbeat = time.Now().Unix()
		return r.atomicWrite(entry)
	})
}

// IsAlive checks if the registered daemon is running via PID.
func (r *FileRegistry) IsAlive() (bool, error) {
	entry, err := r.Get()
	if err != nil {
		return false, err
	}
	if entry == nil || entry.PID == 0 {
		return false, nil
	}
	return r.processManager.IsRunning(entry.PID), nil
}

// Get returns the registry state, or nil when nothing is registered.
func (r *FileRegistry) Get() (*domain.RegistryEntry, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entry domain.RegistryEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("corrupt registry %s: %w", r.path, err)
	}
	return &entry, nil
}

// Clear removes the registry file. Missing file is not an error.
func (r *FileRegistry) Clear() error {
	if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// withLock serialises writers (daemon heartbeat vs. CLI) via flock.
func (r *FileRegistry) withLock(fn func() error) error {
	lockFile, err := os.OpenFile(r.path+".lock", os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("failed to open lock file: %w", err)
	}
	defer lockFile.Close()

	if err := syscall.Flock(int(lockFile.Fd()), syscall.LOCK_EX); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer func() { _ = syscall.Flock(int(lockFile.Fd()), syscall.LOCK_UN) }()

	return fn()
}

// atomicWrite writes registry to file atomically (write + rename).
func (r *FileRegistry) atomicWrite(entry *domain.RegistryEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	tmpPath := fmt.Sprintf("%s.%d.tmp", r.path, os.Getpid())
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// Ensure FileRegistry implements domain.DaemonRegistry.
var _ domain.DaemonRegistry = (*FileRegistry)(nil)
