package system

import (
	"fmt"
	"testing"

	"github.com/cwbudde/algo-smallsignal/internal/testutil"
)

func BenchmarkReduce(b *testing.B) {
	sizes := []struct {
		states, alg int
	}{
		{8, 16},
		{32, 64},
		{64, 256},
	}

	for _, size := range sizes {
		j := testutil.RandomJacobian(1, size.states, size.alg)
		sj := sparseOf(j)

		b.Run(fmt.Sprintf("dense/states=%d_alg=%d", size.states, size.alg), func(b *testing.B) {
			b.ReportAllocs()

			for range b.N {
				_, _ = Reduce(j, size.states)
			}
		})

		b.Run(fmt.Sprintf("sparse/states=%d_alg=%d", size.states, size.alg), func(b *testing.B) {
			b.ReportAllocs()

			for range b.N {
				_, _ = ReduceSparse(sj, size.states)
			}
		})
	}
}
