package core

// Decide maps a classification category to a retention action. Membership
// in keepSet is exact and case-sensitive: an unrecognized or misspelled
// category name from the classifier is trashed. Callers that want leniency
// must normalize categories before calling.
func Decide(category string, keepSet map[string]struct{}) Action {
	if _, ok := keepSet[category]; ok {
		return ActionKeep
	}
	return ActionTrash
}

// KeepSet builds a membership set from the configured category names
func KeepSet(categories []string) map[string]struct{} {
	set := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		set[c] = struct{}{}
	}
	return set
}
