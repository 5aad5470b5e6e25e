package experiment

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samuelfneumann/sunrise/agent"
	"github.com/samuelfneumann/sunrise/buffer/expreplay"
)

// VariantFile is the file in a log directory holding the experiment's
// Config
const VariantFile = "variant.json"

// RunPrefix returns the prefix of the names of the log directories of
// runs on env with the given seed
func RunPrefix(env string, seed uint64) string {
	return fmt.Sprintf("%s_%d_", env, seed)
}

// SetupLogDir creates a new log directory for one run of the
// experiment c and writes c to its variant file. The directory is
// created at
//
//	<expDir>/<expName>/<env>_<seed>_<timestamp>_<id>
//
// with buffer and model subdirectories. The returned Config has its
// LogDir set to the new directory.
func SetupLogDir(expDir, expName string, c Config) (Config, error) {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	name := RunPrefix(c.Env, c.Seed) +
		time.Now().Format("2006_01_02_15_04_05") + "_" + id
	dir := filepath.Join(expDir, expName, name)

	for _, sub := range []string{expreplay.SnapshotDir, agent.ModelDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return Config{}, fmt.Errorf("setupLogDir: %w", err)
		}
	}

	c.LogDir = dir
	if err := WriteVariant(c); err != nil {
		return Config{}, fmt.Errorf("setupLogDir: %w", err)
	}
	return c, nil
}

// WriteVariant writes c to the variant file of its log directory
func WriteVariant(c Config) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("writeVariant: %w", err)
	}
	path := filepath.Join(c.LogDir, VariantFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writeVariant: %w", err)
	}
	return nil
}

// ReadVariant reads the Config stored in the variant file of dir
func ReadVariant(dir string) (Config, error) {
	data, err := os.ReadFile(filepath.Join(dir, VariantFile))
	if err != nil {
		return Config{}, fmt.Errorf("readVariant: %w", err)
	}

	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("readVariant: %w", err)
	}
	return c, nil
}

// FindResumeDir returns the single run directory in resumeDir holding
// a run on env with the given seed. It is an error if there is no such
// directory or more than one.
func FindResumeDir(resumeDir, env string, seed uint64) (string, error) {
	entries, err := os.ReadDir(resumeDir)
	if err != nil {
		return "", fmt.Errorf("findResumeDir: %w", err)
	}

	prefix := RunPrefix(env, seed)
	var matches []string
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), prefix) {
			matches = append(matches, entry.Name())
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("findResumeDir: no run of %v with seed %v "+
			"in %v", env, seed, resumeDir)
	case 1:
		return filepath.Join(resumeDir, matches[0]), nil
	}
	return "", fmt.Errorf("findResumeDir: multiple runs of %v with seed "+
		"%v in %v: %v", env, seed, resumeDir, matches)
}
