// Package cluster groups events into interest clusters by TF-IDF vectorising their
// category labels and running k-means over the vectors.
//
// With one term per event and a vocabulary the size of the category list, clusters
// end up mirroring categories. That is the expected outcome, not a bug.
package cluster

import "browsify-profiler/internal/models"

// Assign clusters the events that have a domain and sets their ClusterID in [0,K).
// Events without a domain keep models.NoCluster.
func Assign(events models.EventCollection, km KMeans) models.ClusterDiagnostics {
	idx := make([]int, 0, len(events))
	docs := make([]string, 0, len(events))
	for i, e := range events {
		if !e.HasDomain() {
			continue
		}
		idx = append(idx, i)
		docs = append(docs, e.Category)
	}

	vectors, vocab := Vectorize(docs)
	res := km.Fit(vectors)
	for j, i := range idx {
		events[i].ClusterID = res.Labels[j]
	}
	return models.ClusterDiagnostics{
		K:          res.K,
		Iterations: res.Iterations,
		Converged:  res.Converged,
		Inertia:    res.Inertia,
		Clustered:  len(idx),
		Vocabulary: vocab,
	}
}
