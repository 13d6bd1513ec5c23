package snapfs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LookupOptions controls a LookupVersions call.
type LookupOptions struct {
	Policies []Policy
	NoSnap   bool // suppress snapshot versions in the result
	NoLive   bool // suppress the live PathRecord in the result
}

// VersionResult is the two-element structure lookup_versions returns:
// index 0 holds snapshot versions, index 1 holds live records.
type VersionResult struct {
	Versions []PathRecord
	Live     []PathRecord
}

// Engine is the caller-facing surface of the lookup core: the only
// API external collaborators (the CLI, the interactive picker) call.
// A MountIndex and AliasMap are read-only and shared for the lifetime
// of the request; an Engine owns one Planner (and thus one
// ProximateResolver cache) per construction.
type Engine struct {
	idx     *MountIndex
	aliases *AliasMap
	planner *Planner
}

// NewEngine constructs an Engine over idx and aliases. aliases may be
// nil.
func NewEngine(idx *MountIndex, aliases *AliasMap) *Engine {
	if aliases == nil {
		aliases = &AliasMap{}
	}

	return &Engine{idx: idx, aliases: aliases, planner: NewPlanner(idx)}
}

// LookupVersions answers which snapshots contain a version of each
// input path. One dataset failing to produce a bundle is flattened
// away; errors are only returned when every path fails outright and
// contributes nothing to the merged result.
func (e *Engine) LookupVersions(ctx context.Context, paths []string, opts LookupOptions) (VersionResult, error) {
	var (
		result  VersionResult
		lastErr error
		anyOK   bool
	)

	policies := opts.Policies
	if len(policies) == 0 {
		policies = []Policy{MostProximate}
	}

	for _, p := range paths {
		if !opts.NoLive {
			result.Live = append(result.Live, liveRecord(p))
		}

		if opts.NoSnap {
			continue
		}

		alias := e.aliasFor(p)

		bundles, err := e.planner.Plan(p, policies, alias)
		if err != nil {
			lastErr = err
			continue
		}

		var pathVersions []PathRecord

		for _, b := range bundles {
			versions, err := EnumerateVersions(ctx, b)
			if err != nil {
				lastErr = err
				continue
			}

			pathVersions = mergeVersions(pathVersions, versions)
		}

		if len(pathVersions) > 0 {
			anyOK = true
		}

		result.Versions = append(result.Versions, pathVersions...)
	}

	if !opts.NoSnap && !anyOK && len(result.Versions) == 0 {
		if lastErr != nil {
			return result, lastErr
		}

		return result, newError(ErrKindNoVersionsFound, "", nil)
	}

	return result, nil
}

// mergeVersions appends src into dst, re-deduplicating by (mtime,
// size) and re-sorting, so callers combining multiple bundles for one
// path still honour the "no two returned versions share a (mtime,
// size)" invariant.
func mergeVersions(dst, src []PathRecord) []PathRecord {
	seen := make(map[versionKey]struct{}, len(dst)+len(src))

	out := make([]PathRecord, 0, len(dst)+len(src))

	for _, rec := range append(append([]PathRecord{}, dst...), src...) {
		k := keyFor(rec.Metadata)
		if _, dup := seen[k]; dup {
			continue
		}

		seen[k] = struct{}{}
		out = append(out, rec)
	}

	sortByModTime(out)

	return out
}

func sortByModTime(recs []PathRecord) {
	for i := 1; i < len(recs); i++ {
		for j := i; j > 0 && recs[j].Metadata.ModTime.Before(recs[j-1].Metadata.ModTime); j-- {
			recs[j], recs[j-1] = recs[j-1], recs[j]
		}
	}
}

// LookupDeleted computes the set of filenames present in some
// snapshot of liveDir but absent from its live listing.
func (e *Engine) LookupDeleted(ctx context.Context, liveDir string, policies []Policy) ([]DeletedEntry, error) {
	if len(policies) == 0 {
		policies = []Policy{MostProximate}
	}

	alias := e.aliasFor(liveDir)

	bundles, err := e.planner.Plan(liveDir, policies, alias)
	if err != nil {
		return nil, err
	}

	return EnumerateDeleted(ctx, liveDir, bundles)
}

// MountsForFiles returns the candidate dataset mount-point set for
// each input path, used by the snapshot-create flow.
func (e *Engine) MountsForFiles(paths []string) (map[string][]string, []string) {
	records := make([]PathRecord, 0, len(paths))
	for _, p := range paths {
		records = append(records, liveRecord(p))
	}

	return MountsForFiles(e.idx, records, []Policy{MostProximate}, false)
}

// TakeSnapshot resolves paths to their most-proximate dataset mounts
// (the policy is always forced regardless of any caller-configured
// alternate-replica flag) and invokes the host snapshot utility once
// per pool. A path under an aliased local directory fails with
// [ErrKindUnsupportedAlias]: an alias has no dataset name to snapshot.
func (e *Engine) TakeSnapshot(ctx context.Context, paths []string, toolName string) error {
	records := make([]PathRecord, 0, len(paths))
	for _, p := range paths {
		if e.aliasFor(p) != nil {
			return newError(ErrKindUnsupportedAlias, p, nil)
		}

		records = append(records, liveRecord(p))
	}

	mounts, _ := MountsForFiles(e.idx, records, nil, true)

	return TakeSnapshot(ctx, e.idx, mounts, toolName, time.Now())
}

func (e *Engine) aliasFor(path string) *AliasEntry {
	clean := filepath.Clean(path)

	for _, entry := range e.aliases.Entries() {
		local := filepath.Clean(entry.LocalDir)
		if clean == local || strings.HasPrefix(clean, local+string(filepath.Separator)) {
			entry := entry
			return &entry
		}
	}

	return nil
}

// liveRecord stats path and returns its PathRecord, phantom if the
// path does not exist or cannot be stat'd.
func liveRecord(path string) PathRecord {
	info, err := os.Lstat(path)
	if err != nil {
		return PathRecord{Path: path}
	}

	return PathRecord{
		Path: path,
		Metadata: &Metadata{
			ModTime: info.ModTime(),
			Size:    info.Size(),
			Kind:    fileKindOf(info),
		},
	}
}
