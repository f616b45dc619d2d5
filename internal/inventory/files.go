package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/workspace-advisor/pkg/models"
	"gopkg.in/yaml.v3"
)

// FilesConfig 数据文件位置，文件名不含扩展名
type FilesConfig struct {
	Dir       string
	Spaces    string
	Desks     string
	Occupancy string
	Policies  string
}

var extensions = []string{".json", ".yaml", ".yml"}

// FileSource 从静态文件加载数据，每次调用都重新读取
type FileSource struct {
	cfg    FilesConfig
	logger *logrus.Logger
}

// NewFileSource 创建文件数据源
func NewFileSource(cfg FilesConfig, logger *logrus.Logger) *FileSource {
	if cfg.Spaces == "" {
		cfg.Spaces = "spaces"
	}
	if cfg.Desks == "" {
		cfg.Desks = "desks"
	}
	if cfg.Occupancy == "" {
		cfg.Occupancy = "occupancy"
	}
	if cfg.Policies == "" {
		cfg.Policies = "policies"
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &FileSource{cfg: cfg, logger: logger}
}

// Snapshot 实现 Source。任一文件缺失、不可读或无效都返回 ErrDataAccess
func (s *FileSource) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	var (
		spaces    spacesFile
		desks     desksFile
		occupancy occupancyFile
		policies  policiesFile
	)

	files := []struct {
		name   string
		target interface{}
	}{
		{s.cfg.Spaces, &spaces},
		{s.cfg.Desks, &desks},
		{s.cfg.Occupancy, &occupancy},
		{s.cfg.Policies, &policies},
	}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.load(f.name, f.target); err != nil {
			return nil, fmt.Errorf("%w: %w", models.ErrDataAccess, err)
		}
	}

	hierarchy, err := models.NewHierarchy(spaces.nodes())
	if err != nil {
		return nil, fmt.Errorf("%w: spaces: %w", models.ErrDataAccess, err)
	}

	deskList, alias, err := desks.desks()
	if err != nil {
		return nil, fmt.Errorf("%w: desks: %w", models.ErrDataAccess, err)
	}

	current, forecasts, err := occupancy.records(alias)
	if err != nil {
		return nil, fmt.Errorf("%w: occupancy: %w", models.ErrDataAccess, err)
	}

	snapshot, err := models.NewSnapshot(hierarchy, deskList, current, forecasts, policies.policies())
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"dir":       s.cfg.Dir,
		"spaces":    len(spaces.Spaces),
		"desks":     len(snapshot.Desks),
		"occupancy": len(snapshot.Occupancy),
		"forecasts": len(snapshot.Forecasts),
		"policies":  len(snapshot.Policies),
	}).Debug("Loaded inventory snapshot")

	return snapshot, nil
}

// load 按扩展名顺序查找文件并解码
func (s *FileSource) load(name string, target interface{}) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(false)
		if err := dec.Decode(target); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, target); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
	}
	return nil
}

func (s *FileSource) resolve(name string) (string, error) {
	base := filepath.Join(s.cfg.Dir, name)
	if ext := filepath.Ext(name); ext != "" {
		if _, err := os.Stat(base); err != nil {
			return "", fmt.Errorf("data file %s: %w", base, err)
		}
		return base, nil
	}

	for _, ext := range extensions {
		path := base + ext
		_, err := os.Stat(path)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("data file %s: %w", path, err)
		}
	}
	return "", fmt.Errorf("data file %s not found (tried %s)", base, strings.Join(extensions, ", "))
}
