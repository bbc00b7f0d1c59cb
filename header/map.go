package header

// Map is one directory: tag key to Field. The top-level directory and
// every sequence item's nested directory are both Maps sharing the same
// underlying file's data region.
type Map map[string]*Field

// Equals reports whether two directories are structurally identical.
func (m Map) Equals(other Map) bool {
	if len(m) != len(other) {
		return false
	}
	for tag, f := range m {
		of, ok := other[tag]
		if !ok || !f.Equals(of) {
			return false
		}
	}
	return true
}
