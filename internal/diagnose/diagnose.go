// Package diagnose locates route endpoints across a pool of graph files and
// derives cable and graph recommendations when a routing call fails.
//
// The diagnoser never attempts pathfinding: it only answers where each
// endpoint exists and which cable classes could span the tags it found.
package diagnose

import (
	"fmt"

	"github.com/tramo-dev/tramo-go/internal/geometry"
	"github.com/tramo-dev/tramo-go/internal/graph"
	"github.com/tramo-dev/tramo-go/internal/routing"
)

// Source answers vertex-tag lookups against a named graph file. The direct
// implementation parses files on demand; the pool package provides a
// badger-backed one for large graph pools.
type Source interface {
	// Lookup reports whether the vertex key exists in the given graph
	// file and, if so, its subsystem tag.
	Lookup(file, key string) (graph.System, bool, error)
}

// Presence records where one endpoint was found.
type Presence struct {
	Found bool
	Tag   graph.System
}

// GraphFinding is the per-file row of the findings table.
type GraphFinding struct {
	File    string
	Src     Presence
	Dst     Presence
	LoadErr string
}

// Outcome classifies the overall result of a diagnosis.
type Outcome string

const (
	OutcomeBothFound    Outcome = "both endpoints found"
	OutcomeOnlySource   Outcome = "only the source was found"
	OutcomeOnlyDest     Outcome = "only the destination was found"
	OutcomeNeitherFound Outcome = "neither endpoint found"
)

// Findings is the structured result of a diagnosis.
type Findings struct {
	Source      geometry.Point
	Destination geometry.Point
	PerGraph    []GraphFinding

	// Graphs containing both endpoints, and the union over those graphs
	// of the cable classes spanning both endpoint tags.
	RecommendedGraphs []string
	RecommendedCables []routing.Cable

	Outcome Outcome

	// SuggestedCommand is a ready-to-run invocation when a feasible
	// (graph, cable) combination exists.
	SuggestedCommand string
}

// Run checks both endpoints against every candidate graph file. Files that
// fail to load are recorded and skipped, matching the tolerant behaviour a
// pool scan needs.
func Run(src, dst geometry.Point, files []string, source Source) *Findings {
	findings := &Findings{Source: src, Destination: dst}

	cableSet := make(map[routing.Cable]bool)
	srcAnywhere, dstAnywhere := false, false

	for _, file := range files {
		row := GraphFinding{File: file}

		srcTag, srcOK, err := source.Lookup(file, src.Key)
		if err != nil {
			row.LoadErr = err.Error()
			findings.PerGraph = append(findings.PerGraph, row)
			continue
		}
		dstTag, dstOK, err := source.Lookup(file, dst.Key)
		if err != nil {
			row.LoadErr = err.Error()
			findings.PerGraph = append(findings.PerGraph, row)
			continue
		}

		row.Src = Presence{Found: srcOK, Tag: srcTag}
		row.Dst = Presence{Found: dstOK, Tag: dstTag}
		findings.PerGraph = append(findings.PerGraph, row)

		srcAnywhere = srcAnywhere || srcOK
		dstAnywhere = dstAnywhere || dstOK

		if srcOK && dstOK {
			findings.RecommendedGraphs = append(findings.RecommendedGraphs, file)
			for _, c := range routing.CablesSpanning(srcTag, dstTag) {
				cableSet[c] = true
			}
		}
	}

	for _, c := range []routing.Cable{routing.CableA, routing.CableB, routing.CableC} {
		if cableSet[c] {
			findings.RecommendedCables = append(findings.RecommendedCables, c)
		}
	}

	switch {
	case srcAnywhere && dstAnywhere:
		findings.Outcome = OutcomeBothFound
	case srcAnywhere:
		findings.Outcome = OutcomeOnlySource
	case dstAnywhere:
		findings.Outcome = OutcomeOnlyDest
	default:
		findings.Outcome = OutcomeNeitherFound
	}

	if len(findings.RecommendedGraphs) > 0 && len(findings.RecommendedCables) > 0 {
		findings.SuggestedCommand = fmt.Sprintf(
			"tramo-go direct %s %.3f %.3f %.3f %.3f %.3f %.3f --cable %s",
			findings.RecommendedGraphs[0],
			src.X, src.Y, src.Z,
			dst.X, dst.Y, dst.Z,
			findings.RecommendedCables[len(findings.RecommendedCables)-1],
		)
	}

	return findings
}

// FileSource is the direct Source: it parses each graph file at most once
// per diagnosis and keeps the parsed store for subsequent lookups.
type FileSource struct {
	stores map[string]*graph.Store
	errs   map[string]error
}

// NewFileSource creates an empty file-backed source.
func NewFileSource() *FileSource {
	return &FileSource{
		stores: make(map[string]*graph.Store),
		errs:   make(map[string]error),
	}
}

// Lookup implements Source.
func (f *FileSource) Lookup(file, key string) (graph.System, bool, error) {
	store, err := f.load(file)
	if err != nil {
		return "", false, err
	}

	tag, tagErr := store.VertexTag(key)
	if tagErr != nil {
		return "", false, nil
	}
	return tag, true, nil
}

func (f *FileSource) load(file string) (*graph.Store, error) {
	if store, ok := f.stores[file]; ok {
		return store, nil
	}
	if err, ok := f.errs[file]; ok {
		return nil, err
	}

	store, err := graph.LoadFile(file)
	if err != nil {
		f.errs[file] = err
		return nil, err
	}
	f.stores[file] = store
	return store, nil
}
