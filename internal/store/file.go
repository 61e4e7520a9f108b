package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/regwatch/pkg/changelog"
	"github.com/agentstation/regwatch/pkg/constants"
	"github.com/agentstation/regwatch/pkg/errors"
	"github.com/agentstation/regwatch/pkg/logging"
)

// codec encodes a log file body.
type codec struct {
	ext       string
	marshal   func(*changelog.Log) ([]byte, error)
	unmarshal func([]byte, *changelog.Log) error
}

var jsonCodec = codec{
	ext: ".json",
	marshal: func(l *changelog.Log) ([]byte, error) {
		return json.MarshalIndent(l, "", "    ")
	},
	unmarshal: func(data []byte, l *changelog.Log) error {
		return json.Unmarshal(data, l)
	},
}

var yamlCodec = codec{
	ext: ".yaml",
	marshal: func(l *changelog.Log) ([]byte, error) {
		return yaml.Marshal(l)
	},
	unmarshal: func(data []byte, l *changelog.Log) error {
		return yaml.Unmarshal(data, l)
	},
}

// FileStore keeps one file per label in a directory.
type FileStore struct {
	dir   string
	codec codec
}

// NewJSON returns a store writing change_log_<slug>.json files.
func NewJSON(dir string) *FileStore {
	return &FileStore{dir: dir, codec: jsonCodec}
}

// NewYAML returns a store writing change_log_<slug>.yaml files.
func NewYAML(dir string) *FileStore {
	return &FileStore{dir: dir, codec: yamlCodec}
}

// Dir returns the store directory.
func (s *FileStore) Dir() string { return s.dir }

// Path returns the file a label is stored in.
func (s *FileStore) Path(label string) string {
	return filepath.Join(s.dir, constants.ChangeLogFilePrefix+Slug(label)+s.codec.ext)
}

// Save writes the log atomically.
func (s *FileStore) Save(ctx context.Context, log *changelog.Log) error {
	if err := validateLabel(log.Label()); err != nil {
		return err
	}
	data, err := s.codec.marshal(log)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, constants.DirPermissions); err != nil {
		return errors.WrapIO("create", s.dir, err)
	}

	path := s.Path(log.Label())
	if stored, err := s.decode(path); err == nil && stored.Label() != "" && stored.Label() != log.Label() {
		return errors.NewValidationError("label", log.Label(),
			fmt.Sprintf("%s already holds change log %q", filepath.Base(path), stored.Label()))
	}
	tmp, err := os.CreateTemp(s.dir, ".change_log_*")
	if err != nil {
		return errors.WrapIO("create", "temp file", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return errors.WrapIO("write", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return errors.WrapIO("write", path, err)
	}
	if err := os.Chmod(tmpPath, constants.FilePermissions); err != nil {
		_ = os.Remove(tmpPath)
		return errors.WrapIO("chmod", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return errors.WrapIO("move", path, err)
	}

	logging.FromContext(ctx).Debug().
		Str("label", log.Label()).
		Str("path", path).
		Int("records", log.Len()).
		Msg("Saved change log")
	return nil
}

// Load reads the file for label. The log keeps the label stored in its
// records; an empty log takes label.
func (s *FileStore) Load(_ context.Context, label string) (*changelog.Log, error) {
	if err := validateLabel(label); err != nil {
		return nil, err
	}
	path := s.Path(label)
	log, err := s.decode(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("change log", label)
		}
		return nil, err
	}
	if log.Label() == "" {
		return log.WithLabel(label), nil
	}
	return log, nil
}

// decode reads and parses one log file. A missing file yields an error
// satisfying os.IsNotExist.
func (s *FileStore) decode(path string) (*changelog.Log, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, errors.WrapIO("read", path, err)
	}
	var log changelog.Log
	if err := s.codec.unmarshal(data, &log); err != nil {
		return nil, errors.WrapParse(strings.TrimPrefix(s.codec.ext, "."), path, err)
	}
	return &log, nil
}

// Labels lists stored labels. A label is read back from the first record
// of its file, or from the file name when the log is empty.
func (s *FileStore) Labels(ctx context.Context) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, constants.ChangeLogFilePrefix+"*"+s.codec.ext))
	if err != nil {
		return nil, errors.WrapIO("list", s.dir, err)
	}

	labels := make([]string, 0, len(matches))
	for _, path := range matches {
		stem := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), constants.ChangeLogFilePrefix), s.codec.ext)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.WrapIO("read", path, err)
		}
		var log changelog.Log
		if err := s.codec.unmarshal(data, &log); err != nil {
			logging.FromContext(ctx).Warn().Err(err).Str("path", path).Msg("Skipping unreadable change log")
			continue
		}
		label := log.Label()
		if label == "" {
			label = stem
		}
		labels = append(labels, label)
	}
	SortLabels(labels)
	return labels, nil
}

// Close is a no-op for file stores.
func (s *FileStore) Close() error { return nil }
