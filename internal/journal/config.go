package journal

import (
	"path/filepath"

	"codeberg.org/mutker/tweakctl/internal/errors"
)

const (
	// File system permissions and names
	defaultDirPerm  = 0o755
	defaultFileName = "journal.db"
	backupDirName   = "backups"
)

type Config struct {
	DBPath       string
	Enabled      bool
	BatchSize    int
	BatchTimeout int // seconds
}

// DefaultConfig places the database under dataDir.
func DefaultConfig(dataDir string) Config {
	return Config{
		DBPath:       filepath.Join(dataDir, defaultFileName),
		Enabled:      true,
		BatchSize:    1,
		BatchTimeout: 5,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	// Only validate the path if the journal is enabled
	if c.Enabled && c.DBPath == "" {
		return errFactory.New(ErrInvalidDBPath)
	}
	if c.BatchSize < 0 || c.BatchTimeout < 0 {
		return errFactory.WithData(ErrInvalidConfig, "negative batch settings")
	}
	return nil
}

func (c Config) backupDir() string {
	return filepath.Join(filepath.Dir(c.DBPath), backupDirName)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
