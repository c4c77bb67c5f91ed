package cluster

import (
	"math"
	"math/rand"
)

// KMeans is Lloyd's algorithm with seeded k-means++ initialisation.
type KMeans struct {
	K             int
	Seed          int64
	MaxIterations int
	Tolerance     float64 // total squared centroid shift treated as converged
}

type Result struct {
	K          int // effective cluster count, min(K, len(vectors))
	Labels     []int
	Centroids  [][]float64
	Iterations int
	Converged  bool
	Inertia    float64
}

// Fit partitions vectors into at most K clusters. Running out of iterations is
// reported through Result.Converged, never as an error.
func (km KMeans) Fit(vectors [][]float64) Result {
	n := len(vectors)
	if n == 0 || km.K <= 0 {
		return Result{Converged: true}
	}
	k := km.K
	if k > n {
		k = n
	}
	rng := rand.New(rand.NewSource(km.Seed))
	centroids := initPlusPlus(vectors, k, rng)

	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}

	res := Result{K: k}
	for it := 1; it <= km.MaxIterations; it++ {
		changed := assign(vectors, centroids, labels)
		shift := update(vectors, centroids, labels)
		res.Iterations = it
		if !changed || shift <= km.Tolerance {
			res.Converged = true
			break
		}
	}
	// labels must describe the final centroids
	assign(vectors, centroids, labels)

	for i, v := range vectors {
		res.Inertia += sqDist(v, centroids[labels[i]])
	}
	res.Labels = labels
	res.Centroids = centroids
	return res
}

// initPlusPlus picks the first centroid uniformly, then each next one with probability
// proportional to its squared distance from the nearest chosen centroid. When every
// point coincides with a centroid the pick is uniform.
func initPlusPlus(vectors [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(vectors)
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, clone(vectors[rng.Intn(n)]))

	d2 := make([]float64, n)
	for i, v := range vectors {
		d2[i] = sqDist(v, centroids[0])
	}
	for len(centroids) < k {
		var total float64
		for _, d := range d2 {
			total += d
		}
		pick := n - 1
		if total == 0 {
			pick = rng.Intn(n)
		} else {
			r := rng.Float64() * total
			for i, d := range d2 {
				r -= d
				if r < 0 {
					pick = i
					break
				}
			}
		}
		c := clone(vectors[pick])
		centroids = append(centroids, c)
		for i, v := range vectors {
			if d := sqDist(v, c); d < d2[i] {
				d2[i] = d
			}
		}
	}
	return centroids
}

// assign moves every vector to its nearest centroid, ties to the lowest index.
func assign(vectors, centroids [][]float64, labels []int) bool {
	changed := false
	for i, v := range vectors {
		best, bestD := 0, math.Inf(1)
		for c, centroid := range centroids {
			if d := sqDist(v, centroid); d < bestD {
				best, bestD = c, d
			}
		}
		if labels[i] != best {
			labels[i] = best
			changed = true
		}
	}
	return changed
}

// update recomputes centroids as means and returns the total squared shift.
// An empty cluster keeps its previous centroid.
func update(vectors, centroids [][]float64, labels []int) float64 {
	dim := len(centroids[0])
	sums := make([][]float64, len(centroids))
	counts := make([]int, len(centroids))
	for c := range sums {
		sums[c] = make([]float64, dim)
	}
	for i, v := range vectors {
		c := labels[i]
		counts[c]++
		for j, x := range v {
			sums[c][j] += x
		}
	}
	var shift float64
	for c := range centroids {
		if counts[c] == 0 {
			continue
		}
		for j := range sums[c] {
			sums[c][j] /= float64(counts[c])
		}
		shift += sqDist(sums[c], centroids[c])
		centroids[c] = sums[c]
	}
	return shift
}

func sqDist(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
