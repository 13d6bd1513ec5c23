package snapfs

// Policy selects which datasets a search considers.
type Policy int

const (
	// MostProximate searches only the longest-ancestor mount.
	MostProximate Policy = iota
	// AltReplicated searches alternate replicas of the proximate
	// mount (see [MountIndex.WithAlternateReplicas]).
	AltReplicated
)

// DatasetsForSearch is the proximate mount plus the ordered set of
// candidate dataset mount points a search will probe. The proximate
// mount is always carried alongside the candidates because it defines
// the relative-path prefix used inside every candidate snapshot tree,
// even when searching alternate replicas.
type DatasetsForSearch struct {
	ProximateMount     string
	DatasetsOfInterest []string
}

// SearchBundle is the atomic unit consumed by [EnumerateVersions] and
// [EnumerateDeleted]: one snapshot root plus the relative sub-path to
// probe under it.
type SearchBundle struct {
	SnapshotRoot       string
	RelativePath       string
	FsKind             FsKind
	ExplicitSnapMounts []string
	HasExplicitMounts  bool
	Dataset            string // the candidate dataset mount point this bundle was built from
}

// Planner turns a live path and a dataset policy into search bundles.
type Planner struct {
	idx      *MountIndex
	resolver *ProximateResolver
}

// NewPlanner returns a Planner backed by idx, with its own
// ProximateResolver cache.
func NewPlanner(idx *MountIndex) *Planner {
	return &Planner{idx: idx, resolver: NewProximateResolver(idx)}
}

// datasetsForSearch resolves path's proximate mount and, per policy
// entry, the datasets of interest. AliasMatch, when non-nil, short-
// circuits proximate resolution for an aliased local directory.
//
// The returned resolveErr is fatal: it means path's proximate mount
// itself could not be found and no policy was even attempted. The
// returned policyErrs are per-policy failures (e.g. AltReplicated
// finding no alternates) collected while proximate resolution
// succeeded; callers decide whether to flatten them.
func (p *Planner) datasetsForSearch(path string, policies []Policy, alias *AliasEntry) ([]DatasetsForSearch, error, []error) {
	var (
		proximate string
		candidate string
		err       error
	)

	if alias != nil {
		// The relative-path prefix is always the alias's local_dir
		// (where the user's live path actually lives), but the
		// dataset actually probed for snapshots is the alias's
		// remote_dir — the two are distinct paths by definition (§3).
		proximate = alias.LocalDir
		candidate = alias.RemoteDir
	} else {
		proximate, err = p.resolver.Resolve(path)
		if err != nil {
			return nil, err, nil
		}

		candidate = proximate
	}

	var (
		results    []DatasetsForSearch
		policyErrs []error
	)

	for _, policy := range policies {
		switch policy {
		case MostProximate:
			results = append(results, DatasetsForSearch{
				ProximateMount:     proximate,
				DatasetsOfInterest: []string{candidate},
			})
		case AltReplicated:
			alts := p.idx.Alternates(proximate)
			if len(alts) == 0 {
				policyErrs = append(policyErrs, newError(ErrKindNoAltReplica, proximate, nil))
				continue
			}

			results = append(results, DatasetsForSearch{
				ProximateMount:     proximate,
				DatasetsOfInterest: alts,
			})
		}
	}

	return results, nil, policyErrs
}

// Plan builds the flattened list of SearchBundles for path under the
// given policies. Resolving path's proximate mount is fatal and
// surfaces directly (e.g. [ErrKindNoDataset]). Once that succeeds,
// failure of one dataset (e.g. AltReplicated finding no alternates) is
// flattened away; failure of every dataset surfaces as
// [ErrKindNoVersionsFound], never the per-policy error itself. alias,
// when non-nil, is the matched alias entry for path's containing local
// directory.
func (p *Planner) Plan(path string, policies []Policy, alias *AliasEntry) ([]SearchBundle, error) {
	dfs, resolveErr, _ := p.datasetsForSearch(path, policies, alias)
	if resolveErr != nil {
		return nil, resolveErr
	}

	if len(dfs) == 0 {
		return nil, newError(ErrKindNoVersionsFound, path, nil)
	}

	var bundles []SearchBundle

	for _, d := range dfs {
		// Relative-path prefix is always stripped relative to the
		// proximate mount, never to the candidate dataset: alternate
		// replicas mirror the proximate dataset's internal structure.
		prefixSource := d.ProximateMount
		if alias != nil {
			prefixSource = alias.LocalDir
		}

		rel := stripPrefix(path, prefixSource)

		for _, dataset := range d.DatasetsOfInterest {
			fsKind := p.fsKindFor(dataset, alias)

			bundle := SearchBundle{
				RelativePath: rel,
				FsKind:       fsKind,
				Dataset:      dataset,
			}

			if explicit := p.idx.ExplicitSnapshotMounts(dataset); explicit != nil {
				bundle.ExplicitSnapMounts = explicit
				bundle.HasExplicitMounts = true
			}

			bundle.SnapshotRoot = fsKind.snapshotRoot(dataset)

			bundles = append(bundles, bundle)
		}
	}

	if len(bundles) == 0 {
		return nil, newError(ErrKindNoVersionsFound, path, nil)
	}

	return bundles, nil
}

func (p *Planner) fsKindFor(dataset string, alias *AliasEntry) FsKind {
	if alias != nil && alias.RemoteDir == dataset {
		return alias.FsKind
	}

	if e, ok := p.idx.Lookup(dataset); ok {
		return e.FsKind
	}

	return FsKindUnknown
}
