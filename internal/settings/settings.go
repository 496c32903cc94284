package settings

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"ttlearn/internal/errors"
)

// Settings are the analyzer defaults persisted between sessions.
type Settings struct {
	DataRoot    string `toml:"data_root_dir"`
	TimelineDir string `toml:"timeline_dir"`
}

// Store persists analyzer settings between sessions.
type Store interface {
	Load() (Settings, error)
	Save(Settings) error
}

// FileStore keeps settings in a TOML file, by default under the user's home
// directory.
type FileStore struct {
	path string
}

// DefaultPath returns the settings file location in the user's home directory.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve home directory")
	}
	return filepath.Join(home, ".ttlearn.toml"), nil
}

// NewFileStore creates a store at path, falling back to DefaultPath when path
// is empty.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		defaultPath, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = defaultPath
	}
	return &FileStore{path: path}, nil
}

// Path returns the backing file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads persisted settings. A missing file yields zero settings, and a
// stored directory that no longer exists on disk is dropped.
func (s *FileStore) Load() (Settings, error) {
	var out Settings

	if _, err := os.Stat(s.path); err != nil {
		if os.IsNotExist(err) {
			return Settings{}, nil
		}
		return Settings{}, errors.Wrapf(err, "failed to stat settings file %s", s.path)
	}

	if _, err := toml.DecodeFile(s.path, &out); err != nil {
		return Settings{}, errors.Wrapf(err, "failed to parse settings file %s", s.path)
	}

	if out.DataRoot != "" && !dirExists(out.DataRoot) {
		out.DataRoot = ""
	}
	if out.TimelineDir != "" && !dirExists(out.TimelineDir) {
		out.TimelineDir = ""
	}
	return out, nil
}

// Save writes settings to the backing file, creating parent directories as
// needed.
func (s *FileStore) Save(in Settings) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "failed to create settings directory %s", dir)
		}
	}

	f, err := os.Create(s.path)
	if err != nil {
		return errors.Wrapf(err, "failed to create settings file %s", s.path)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(in); err != nil {
		return errors.Wrapf(err, "failed to encode settings file %s", s.path)
	}
	return nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
