package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// ErrUnavailable is returned when hsplit was built without cgo and cannot parse C.
var ErrUnavailable = errors.New("C extraction requires cgo (tree-sitter)")

// DefaultMaxIncludeDepth caps #include nesting.
const DefaultMaxIncludeDepth = 16

// parseFunc converts the source of one file into a tree. Inclusion nodes are
// left empty.
type parseFunc func(ctx context.Context, path string, src []byte) (*Node, error)

// Options configures an Extractor.
type Options struct {
	MaxIncludeDepth int
	CacheSize       int
	Logger          *slog.Logger
}

// Extractor reads symbol sets from C files. It is safe for concurrent use.
type Extractor struct {
	parse    parseFunc
	cache    *treeCache
	maxDepth int
	logger   *slog.Logger
}

// New creates an Extractor backed by the tree-sitter C grammar. It returns
// ErrUnavailable in builds without cgo.
func New(opts Options) (*Extractor, error) {
	parse, err := newParser()
	if err != nil {
		return nil, err
	}
	return newExtractor(parse, opts)
}

func newExtractor(parse parseFunc, opts Options) (*Extractor, error) {
	cache, err := newTreeCache(opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create parse cache: %w", err)
	}
	depth := opts.MaxIncludeDepth
	if depth <= 0 {
		depth = DefaultMaxIncludeDepth
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Extractor{parse: parse, cache: cache, maxDepth: depth, logger: logger}, nil
}

// ExtractUnit returns the ordered symbol set of one translation unit: every name
// the unit's own file mentions, with #include directives followed so that
// declarations from headers are part of the tree. Relative paths in file and
// flags resolve against dir.
func (e *Extractor) ExtractUnit(ctx context.Context, file, dir string, flags []string) ([]string, error) {
	path := file
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	path = filepath.Clean(path)

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	root, err := e.parse(ctx, path, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", file, err)
	}
	root = e.withName(root, file)

	s := &splicer{
		ctx:      ctx,
		e:        e,
		search:   ParseSearchPath(flags, dir),
		seen:     map[string]bool{path: true},
		maxDepth: e.maxDepth,
	}
	root = s.splice(root, 0)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return CollectUnit(root, path), nil
}

// ExtractHeader returns the ordered set of symbols declared in header. Only the
// header itself is parsed.
func (e *Extractor) ExtractHeader(ctx context.Context, header string) ([]string, error) {
	path, err := filepath.Abs(header)
	if err != nil {
		return nil, err
	}
	root, err := e.load(ctx, path)
	if err != nil {
		return nil, err
	}
	return CollectHeader(root, path), nil
}

// CachedFiles returns the number of parsed files held in memory.
func (e *Extractor) CachedFiles() int {
	return e.cache.len()
}

// load returns the tree for path, from the cache when the file is unchanged.
func (e *Extractor) load(ctx context.Context, path string) (*Node, error) {
	key, err := statKey(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if tree, ok := e.cache.get(key); ok {
		return tree, nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	tree, err := e.parse(ctx, path, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	e.cache.add(key, tree)
	return tree, nil
}

// withName returns root renamed to name without touching the original.
func (e *Extractor) withName(root *Node, name string) *Node {
	if root.Name == name {
		return root
	}
	cp := *root
	cp.Name = name
	return &cp
}

// splicer replaces Inclusion nodes with the top-level nodes of the files they
// name. Shared trees are copied on the path to each replaced node, never modified.
type splicer struct {
	ctx      context.Context
	e        *Extractor
	search   SearchPath
	seen     map[string]bool
	maxDepth int
}

func (s *splicer) splice(n *Node, depth int) *Node {
	if n.Kind == KindInclusion {
		return s.include(n, depth)
	}

	var children []*Node
	for i, c := range n.Children {
		nc := s.splice(c, depth)
		if nc != c && children == nil {
			children = make([]*Node, i, len(n.Children))
			copy(children, n.Children[:i])
		}
		if children != nil {
			children = append(children, nc)
		}
	}
	if children == nil {
		return n
	}
	cp := *n
	cp.Children = children
	return &cp
}

func (s *splicer) include(n *Node, depth int) *Node {
	if depth >= s.maxDepth || s.ctx.Err() != nil {
		return n
	}
	name, angled := includeTarget(n.Name)
	path, ok := s.search.Resolve(name, angled, filepath.Dir(n.File))
	if !ok {
		s.e.logger.Debug("Include not found", "include", n.Name, "from", n.File)
		return n
	}
	path = filepath.Clean(path)
	if s.seen[path] {
		return n
	}
	s.seen[path] = true

	tree, err := s.e.load(s.ctx, path)
	if err != nil {
		s.e.logger.Debug("Skipping include", "include", path, "error", err.Error())
		return n
	}
	spliced := s.splice(tree, depth+1)

	cp := *n
	cp.Children = spliced.Children
	return &cp
}

// includeTarget splits an include name as written ("x.h" or <x.h>) into the path
// and whether it used angle brackets.
func includeTarget(written string) (string, bool) {
	if len(written) >= 2 {
		switch {
		case written[0] == '<' && written[len(written)-1] == '>':
			return written[1 : len(written)-1], true
		case written[0] == '"' && written[len(written)-1] == '"':
			return written[1 : len(written)-1], false
		}
	}
	return written, false
}
