package songs

// Song is the unit of registration: one discovered source audio asset mapped
// to a numeric slot ID and a build output for the target game.
//
// Identity for diffing is the full tuple. Any change to a song — rename,
// moved source, reassigned slot — produces a different Song and is treated as
// "new", forcing a re-encode rather than a metadata mutation.
type Song struct {
	PackageID  string `json:"packageId"`
	Name       string `json:"name"`
	AssignedID int64  `json:"assignedId"`
	SourcePath string `json:"sourcePath"`
	BuildPath  string `json:"buildPath"`
}

// Set indexes songs by full-tuple identity.
type Set map[Song]struct{}

// NewSet builds a Set from a slice.
func NewSet(list []Song) Set {
	set := make(Set, len(list))
	for _, s := range list {
		set[s] = struct{}{}
	}
	return set
}

// Contains reports whether the exact tuple is present.
func (s Set) Contains(song Song) bool {
	_, ok := s[song]
	return ok
}

// Removed returns the songs present in prev but absent from cur, preserving
// prev's order. This is the pruning input: previous \ current by tuple
// equality.
func Removed(prev, cur []Song) []Song {
	curSet := NewSet(cur)
	var removed []Song
	for _, s := range prev {
		if !curSet.Contains(s) {
			removed = append(removed, s)
		}
	}
	return removed
}
