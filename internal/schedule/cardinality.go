package schedule

// atMostK appends CNF clauses enforcing sum(literals) <= k using the
// sequential-counter encoding (Sinz 2005). Register variables are allocated
// from nextVar; the new next free id is returned. A literal may appear
// several times to express a small integer weight.
func atMostK(clauses *[][]int, literals []int, k int, nextVar int) int {
	n := len(literals)
	if n <= k {
		return nextVar
	}
	if k <= 0 {
		for _, literal := range literals {
			*clauses = append(*clauses, []int{-literal})
		}
		return nextVar
	}

	// registers[i][j] is true when at least j+1 of literals[0..i] hold
	registers := make([][]int, n-1)
	for i := range registers {
		registers[i] = make([]int, k)
		for j := range k {
			registers[i][j] = nextVar
			nextVar++
		}
	}

	*clauses = append(*clauses, []int{-literals[0], registers[0][0]})
	for j := 1; j < k; j++ {
		*clauses = append(*clauses, []int{-registers[0][j]})
	}

	for i := 1; i < n-1; i++ {
		*clauses = append(*clauses, []int{-literals[i], registers[i][0]})
		*clauses = append(*clauses, []int{-registers[i-1][0], registers[i][0]})
		for j := 1; j < k; j++ {
			*clauses = append(*clauses, []int{-literals[i], -registers[i-1][j-1], registers[i][j]})
			*clauses = append(*clauses, []int{-registers[i-1][j], registers[i][j]})
		}
		*clauses = append(*clauses, []int{-literals[i], -registers[i-1][k-1]})
	}
	*clauses = append(*clauses, []int{-literals[n-1], -registers[n-2][k-1]})

	return nextVar
}
