package extract

import (
	"os"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of parsed files kept in memory.
const DefaultCacheSize = 2048

// fileKey identifies one version of a file on disk.
type fileKey struct {
	path    string
	size    int64
	modTime int64
}

func statKey(path string) (fileKey, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fileKey{}, err
	}
	return fileKey{path: path, size: info.Size(), modTime: info.ModTime().UnixNano()}, nil
}

// treeCache holds converted single-file trees. It is safe for concurrent use.
type treeCache struct {
	trees *lru.Cache[fileKey, *Node]
}

func newTreeCache(size int) (*treeCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	trees, err := lru.New[fileKey, *Node](size)
	if err != nil {
		return nil, err
	}
	return &treeCache{trees: trees}, nil
}

func (c *treeCache) get(key fileKey) (*Node, bool) {
	return c.trees.Get(key)
}

func (c *treeCache) add(key fileKey, tree *Node) {
	c.trees.Add(key, tree)
}

func (c *treeCache) len() int {
	return c.trees.Len()
}
