package split

// Combinations returns every subset of {0, ..., n-1} with 1 to maxSize
// elements, ordered by size and then lexicographically. Each subset is sorted.
// maxSize is capped at n.
func Combinations(n, maxSize int) [][]int {
	if maxSize > n {
		maxSize = n
	}
	var out [][]int
	for k := 1; k <= maxSize; k++ {
		idx := make([]int, k)
		for i := range idx {
			idx[i] = i
		}
		for {
			out = append(out, append([]int(nil), idx...))

			// Advance the rightmost index that still has room.
			i := k - 1
			for i >= 0 && idx[i] == n-k+i {
				i--
			}
			if i < 0 {
				break
			}
			idx[i]++
			for j := i + 1; j < k; j++ {
				idx[j] = idx[j-1] + 1
			}
		}
	}
	return out
}
