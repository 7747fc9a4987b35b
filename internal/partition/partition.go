// Package partition turns a header and a usage index into a split recommendation.
package partition

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"

	"hsplit/internal/cluster"
	"hsplit/internal/distance"
	"hsplit/internal/errors"
	"hsplit/internal/extract"
	"hsplit/internal/proximity"
)

// Options selects the linkage and the number of sub-headers.
type Options struct {
	Method cluster.Linkage
	K      int
}

// Recommendation is the outcome for one header.
type Recommendation struct {
	Header string          `json:"header" yaml:"header"`
	Method cluster.Linkage `json:"method" yaml:"method"`
	K      int             `json:"k" yaml:"k"`

	Symbols []string `json:"symbols" yaml:"symbols"`
	// Unused lists header symbols no translation unit references.
	Unused    []string          `json:"unused,omitempty" yaml:"unused,omitempty"`
	Proximity []proximity.Entry `json:"proximity,omitempty" yaml:"proximity,omitempty"`

	// NothingToPartition is set when the header declares fewer than two symbols.
	// Assignment then puts every symbol in cluster 1.
	NothingToPartition bool `json:"nothingToPartition,omitempty" yaml:"nothingToPartition,omitempty"`

	Assignment    map[string]int      `json:"assignment" yaml:"assignment"`
	Groups        [][]string          `json:"groups" yaml:"groups"`
	Dendrogram    *cluster.Dendrogram `json:"dendrogram,omitempty" yaml:"dendrogram,omitempty"`
	LinkageMatrix [][4]float64        `json:"linkageMatrix,omitempty" yaml:"linkageMatrix,omitempty"`
}

// Partitioner runs extraction, proximity, distance and clustering for a header.
type Partitioner struct {
	computer *proximity.Computer
	logger   *slog.Logger
}

// New creates a Partitioner that reads header symbols through extractor.
func New(extractor proximity.HeaderExtractor, logger *slog.Logger) *Partitioner {
	return &Partitioner{
		computer: proximity.NewComputer(extractor, logger),
		logger:   logger,
	}
}

// Recommend clusters header's own symbols by co-occurrence in ix.
func (p *Partitioner) Recommend(ctx context.Context, header string, ix proximity.Lookup, opts Options) (*Recommendation, error) {
	if !opts.Method.Valid() {
		return nil, errors.Newf(errors.InvalidLinkage, "unknown linkage method %q", opts.Method)
	}
	if opts.K < 1 {
		return nil, errors.Newf(errors.InvalidClusterCount, "k must be at least 1, got %d", opts.K)
	}

	res, err := p.computer.Compute(ctx, header, ix)
	if err != nil {
		if stderrors.Is(err, extract.ErrUnavailable) {
			return nil, errors.New(errors.ExtractorUnavailable, "C front end not available", err, nil)
		}
		return nil, errors.New(errors.ExtractionFailed, fmt.Sprintf("extracting %s", header), err, nil)
	}

	rec := &Recommendation{
		Header:    header,
		Method:    opts.Method,
		K:         opts.K,
		Symbols:   res.Symbols,
		Unused:    res.Unused,
		Proximity: res.Map.Entries(),
	}

	n := len(res.Symbols)
	if n < 2 {
		p.logger.Info("Nothing to partition", "header", header, "symbols", n)
		rec.NothingToPartition = true
		rec.K = 1
		rec.Assignment = make(map[string]int, n)
		rec.Groups = [][]string{}
		for _, s := range res.Symbols {
			rec.Assignment[s] = 1
		}
		if n == 1 {
			rec.Groups = [][]string{{res.Symbols[0]}}
		}
		return rec, nil
	}
	if opts.K > n {
		return nil, errors.Newf(errors.InvalidClusterCount, "k=%d exceeds the %d symbols declared in %s", opts.K, n, header).
			WithDetails(map[string]int{"k": opts.K, "symbols": n})
	}

	m := distance.Build(res.Map, res.Symbols)
	if err := m.Validate(); err != nil {
		return nil, errors.New(errors.InternalError, "distance matrix out of range", err, nil)
	}
	out, err := cluster.Run(m, opts.Method, opts.K)
	if err != nil {
		return nil, clusterError(err)
	}

	rec.Assignment = out.Assignment
	rec.Groups = out.Groups
	rec.Dendrogram = out.Dendrogram
	rec.LinkageMatrix = out.Dendrogram.LinkageMatrix()

	p.logger.Info("Partitioned header",
		"header", header,
		"symbols", n,
		"pairs", len(res.Map),
		"method", string(opts.Method),
		"k", opts.K,
	)
	return rec, nil
}

func clusterError(err error) error {
	switch {
	case stderrors.Is(err, cluster.ErrNothingToPartition):
		return errors.New(errors.NothingToPartition, "nothing to partition", err, nil)
	case stderrors.Is(err, cluster.ErrInvalidClusterCount):
		return errors.New(errors.InvalidClusterCount, "invalid cluster count", err, nil)
	default:
		return errors.New(errors.InternalError, "clustering failed", err, nil)
	}
}
