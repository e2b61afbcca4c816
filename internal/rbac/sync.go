package rbac

// diffLinks computes the link changes needed to turn current into desired.
// It treats desired as the complete target state: links present in both sets
// are untouched, so replaying the same submission is a no-op. Both the
// role-permission and the user-role replace operations go through here.
func diffLinks[T comparable](current, desired []T) (add, remove []T) {
	have := make(map[T]struct{}, len(current))
	for _, id := range current {
		have[id] = struct{}{}
	}
	want := make(map[T]struct{}, len(desired))
	for _, id := range desired {
		if _, dup := want[id]; dup {
			continue
		}
		want[id] = struct{}{}
		if _, ok := have[id]; !ok {
			add = append(add, id)
		}
	}
	for _, id := range current {
		if _, ok := want[id]; !ok {
			remove = append(remove, id)
		}
	}
	return add, remove
}
