package vectorstore

import "math"

// Backends implement domain.VectorStore. The sqlite backend is the
// persistent default; qdrant delegates ranking to a remote index;
// memory serves tests and throwaway sessions.

// CosineDistance returns 1 - cosine similarity, so smaller means more
// similar. Mismatched or zero vectors rank last.
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
