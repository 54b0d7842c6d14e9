// Package benchmarks provides shared helpers for benchmark tests.
package benchmarks

import "fmt"

// Animals is a struct-shaped state slice sized for operator benchmarks.
type Animals struct {
	Zebras []string
	Pandas []string
}

// GenNames creates n distinct names.
func GenNames(n int) []string {
	if n < 1 {
		n = 1
	}
	names := make([]string, n)
	for i := 0; i < n; i++ {
		names[i] = fmt.Sprintf("name%d", i)
	}
	return names
}

// GenAnimals creates a state with n names in each herd.
func GenAnimals(n int) Animals {
	return Animals{
		Zebras: GenNames(n),
		Pandas: GenNames(n),
	}
}
