package util

// MergeUniqueStrings returns the union of the given string slices, keeping
// first-seen order and dropping empty values.
func MergeUniqueStrings(slices ...[]string) []string {
	presentStrings := make(map[string]bool)
	var list []string

	for _, slice := range slices {
		for _, item := range slice {
			if !presentStrings[item] && item != "" {
				presentStrings[item] = true
				list = append(list, item)
			}
		}
	}

	return list
}

func ContainsString(s []string, str string) bool {
	for _, v := range s {
		if v == str {
			return true
		}
	}

	return false
}
