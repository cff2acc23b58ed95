package bridge

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dshills/bridgelet/internal/logging"
)

// Cache persists accessory records for one bridge across restarts.
// The backing file lives under the configured storage path and is written
// atomically via a temp file rename.
type Cache struct {
	path string
	log  *logging.Logger
}

// NewCache creates a cache for the bridge identified by id.
func NewCache(storagePath, id string, log *logging.Logger) *Cache {
	if log == nil {
		log = logging.Null
	}
	return &Cache{
		path: filepath.Join(storagePath, fmt.Sprintf("cachedAccessories.%s.json", id)),
		log:  log,
	}
}

// Path returns the cache file path.
func (c *Cache) Path() string {
	return c.path
}

// Load reads the persisted accessories. A missing file is not an error;
// it simply means a first run.
func (c *Cache) Load() ([]Accessory, error) {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read accessory cache: %w", err)
	}

	var accessories []Accessory
	if err := json.Unmarshal(raw, &accessories); err != nil {
		// A corrupt cache is recoverable: start fresh rather than refuse to boot.
		c.log.Warn("accessory cache %s is corrupt, discarding: %v", c.path, err)
		return nil, nil
	}
	return accessories, nil
}

// Save writes the accessory set, replacing any previous contents.
func (c *Cache) Save(accessories []Accessory) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("create storage path: %w", err)
	}

	raw, err := json.MarshalIndent(accessories, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal accessory cache: %w", err)
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		return fmt.Errorf("write accessory cache: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("replace accessory cache: %w", err)
	}
	return nil
}
