package snapfs

import "fmt"

// MountsForFiles runs the planner for each input path but materialises
// only the datasets_of_interest set, not full SearchBundles. Returns a
// mapping from path to its candidate mount points in reverse list
// order (most specific first). Phantom inputs are diagnosed via the
// returned diagnostics slice and excluded from the result map.
//
// forceMostProximate, when true, ignores policies and searches only
// [MostProximate] — the policy SnapshotWriter always forces,
// regardless of the caller's global alternate-replica flag.
func MountsForFiles(idx *MountIndex, paths []PathRecord, policies []Policy, forceMostProximate bool) (map[string][]string, []string) {
	if forceMostProximate {
		policies = []Policy{MostProximate}
	}

	planner := NewPlanner(idx)

	result := make(map[string][]string, len(paths))

	var diagnostics []string

	for _, rec := range paths {
		if rec.Phantom() {
			diagnostics = append(diagnostics, fmt.Sprintf("skipping phantom path: %s", rec.Path))
			continue
		}

		dfs, resolveErr, policyErrs := planner.datasetsForSearch(rec.Path, policies, nil)
		if len(dfs) == 0 {
			if resolveErr != nil {
				diagnostics = append(diagnostics, resolveErr.Error())
			}

			for _, e := range policyErrs {
				diagnostics = append(diagnostics, e.Error())
			}

			continue
		}

		var mounts []string

		for _, d := range dfs {
			mounts = append(mounts, d.DatasetsOfInterest...)
		}

		// Reverse so the most specific (last-resolved) candidate is
		// listed first.
		for i, j := 0, len(mounts)-1; i < j; i, j = i+1, j-1 {
			mounts[i], mounts[j] = mounts[j], mounts[i]
		}

		result[rec.Path] = mounts
	}

	return result, diagnostics
}
