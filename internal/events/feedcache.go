package events

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/peterbourgon/diskv/v3"
)

// feedMeta is the HTTP validator state kept next to a cached feed body.
type feedMeta struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// feedCache stores the last good body of each feed with its validators.
// Keys are a hash of the feed URL so tokens in the URL never hit the disk
// as file names.
type feedCache struct {
	d *diskv.Diskv
}

func newFeedCache(dir string) *feedCache {
	if dir == "" {
		dir = "./var/ics-cache"
	}
	return &feedCache{d: diskv.New(diskv.Options{
		BasePath:          dir,
		AdvancedTransform: flatKey,
		InverseTransform:  func(pk *diskv.PathKey) string { return pk.FileName },
		CacheSizeMax:      4 * 1024 * 1024,
		FilePerm:          0o600,
		PathPerm:          0o700,
	})}
}

func flatKey(key string) *diskv.PathKey {
	return &diskv.PathKey{Path: []string{}, FileName: key}
}

func feedKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:8])
}

func (c *feedCache) load(url string) (feedMeta, []byte) {
	key := feedKey(url)
	var meta feedMeta
	if data, err := c.d.Read(key + ".json"); err == nil {
		_ = json.Unmarshal(data, &meta)
	}
	body, _ := c.d.Read(key + ".ics")
	return meta, body
}

// save writes the body first so the metadata never points at a missing body.
func (c *feedCache) save(meta feedMeta, body []byte) error {
	key := feedKey(meta.URL)
	if err := c.d.Write(key+".ics", body); err != nil {
		return err
	}
	meta.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return c.d.Write(key+".json", data)
}
