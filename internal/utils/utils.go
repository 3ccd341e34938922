package utils

// RoundUp2 - Returns the nearest power of 2 that is equal to or bigger than a, a value below 1 gives 1
func RoundUp2(a int64) int64 {
	r := int64(1)
	for r < a {
		r <<= 1
	}

	return r
}

// SortedUnique - Returns true if keys are strictly ascending
func SortedUnique(keys []int32) bool {
	for i := 1; i < len(keys); i++ {
		if keys[i-1] >= keys[i] {
			return false
		}
	}

	return true
}
