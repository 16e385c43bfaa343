package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/fgeck/profsync/internal/models"
)

// machineSubdir is the fixed subpath under the cloud-synced directory that
// holds one backup root per machine.
const machineSubdir = "MachineBackups"

// BackupDest returns this machine's backup root under the cloud-synced
// directory. Created on the first backup run.
func BackupDest(env models.Env) string {
	return filepath.Join(env.CloudDir, machineSubdir, env.MachineName)
}

// DetectRestoreRoot picks the backup root to restore from: the most recently
// modified machine directory under the cloud-synced base. Equal modification
// times fall back to name order so the choice stays deterministic.
func DetectRestoreRoot(env models.Env) (string, error) {
	base := filepath.Join(env.CloudDir, machineSubdir)

	entries, err := os.ReadDir(base)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", base, err)
	}

	type candidate struct {
		name    string
		modTime int64
	}
	var candidates []candidate
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{name: e.Name(), modTime: info.ModTime().UnixNano()})
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("no machine backups found under %s", base)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].modTime != candidates[j].modTime {
			return candidates[i].modTime > candidates[j].modTime
		}
		return candidates[i].name < candidates[j].name
	})

	return filepath.Join(base, candidates[0].name), nil
}
