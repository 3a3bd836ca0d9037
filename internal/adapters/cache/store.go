package cache

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caravel-ci/gitver/internal/domain"
)

// DirName is the cache directory created inside the repository's .git
// directory.
const DirName = "gitver_cache"

const entrySuffix = ".cache"

// Logger defines the logging interface for the cache store.
type Logger interface {
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
}

// FileStore persists version variables as one plain-text file per cache
// key. The file format is a stable external contract: one "Key: Value"
// line per applicable variable. All read failures degrade to cache misses;
// the cache is an optimization, never a correctness dependency.
type FileStore struct {
	dir        string
	configPath string
	logger     Logger
}

// NewFileStore creates a FileStore rooted at dir. configPath is the
// configuration document whose modification invalidates existing entries;
// it may name a file that does not exist.
func NewFileStore(dir, configPath string, log Logger) *FileStore {
	return &FileStore{
		dir:        dir,
		configPath: configPath,
		logger:     log,
	}
}

// Path returns the on-disk entry path for the key.
func (s *FileStore) Path(key string) string {
	return filepath.Join(s.dir, key+entrySuffix)
}

// Lookup reads the entry for the key. It misses when the entry is absent,
// when it cannot be parsed, or when the configuration file has been
// modified after the cache directory was last written: configuration
// changes must invalidate cached results even at an unchanged commit.
func (s *FileStore) Lookup(key string) (*domain.VersionVariables, domain.CacheLookupResult) {
	ctx := context.Background()

	if s.configNewerThanCache() {
		return nil, domain.CacheMissInvalidated
	}

	path := s.Path(key)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.CacheMissAbsent
		}
		s.logger.Warn(ctx, "failed to open cache entry", map[string]interface{}{
			"file":  path,
			"error": err.Error(),
		})
		return nil, domain.CacheMissCorrupt
	}
	defer file.Close()

	vars, err := parseEntry(file)
	if err != nil {
		s.logger.Warn(ctx, "failed to parse cache entry", map[string]interface{}{
			"file":  path,
			"error": err.Error(),
		})
		return nil, domain.CacheMissCorrupt
	}

	return vars, domain.CacheHit
}

// Store writes the entry atomically: serialized to a temp file in the
// cache directory, then renamed onto the final path so a concurrent reader
// never observes a partially written entry.
func (s *FileStore) Store(key string, vars *domain.VersionVariables) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, key+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	tmpName := tmp.Name()

	writer := bufio.NewWriter(tmp)
	for _, field := range vars.Fields() {
		if _, err := fmt.Fprintf(writer, "%s: %s\n", field.Name, field.Value); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return fmt.Errorf("failed to write cache entry: %w", err)
		}
	}
	if err := writer.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp cache file: %w", err)
	}

	if err := os.Rename(tmpName, s.Path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to rename cache entry into place: %w", err)
	}

	return nil
}

// configNewerThanCache reports whether the configuration file was modified
// after the cache directory. Missing config or missing cache directory
// both mean no invalidation applies.
func (s *FileStore) configNewerThanCache() bool {
	if s.configPath == "" {
		return false
	}
	configInfo, err := os.Stat(s.configPath)
	if err != nil {
		return false
	}
	dirInfo, err := os.Stat(s.dir)
	if err != nil {
		return false
	}
	return configInfo.ModTime().After(dirInfo.ModTime())
}

// parseEntry reads "Key: Value" lines into version variables. An entry
// without a Sha value is structurally invalid.
func parseEntry(file *os.File) (*domain.VersionVariables, error) {
	vars := &domain.VersionVariables{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		name, value, found := strings.Cut(line, ":")
		if !found {
			return nil, fmt.Errorf("malformed cache line %q", line)
		}
		if err := vars.SetField(strings.TrimSpace(name), strings.TrimSpace(value)); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}
	if vars.Sha == "" {
		return nil, fmt.Errorf("cache entry missing Sha")
	}
	fillDerived(vars)
	return vars, nil
}

// fillDerived reconstructs derived string fields that a hand-authored or
// older entry may omit, from the numeric components that are present.
func fillDerived(vars *domain.VersionVariables) {
	if vars.MajorMinorPatch == "" {
		vars.MajorMinorPatch = fmt.Sprintf("%d.%d.%d", vars.Major, vars.Minor, vars.Patch)
	}
	if vars.AssemblySemVer == "" {
		vars.AssemblySemVer = vars.MajorMinorPatch + ".0"
	}
	if vars.AssemblySemFileVer == "" {
		vars.AssemblySemFileVer = vars.MajorMinorPatch + ".0"
	}
	if vars.SemVer == "" {
		vars.SemVer = vars.MajorMinorPatch + vars.PreReleaseTagWithDash
	}
	if vars.ShortSha == "" && len(vars.Sha) >= 7 {
		vars.ShortSha = vars.Sha[:7]
	}
}
