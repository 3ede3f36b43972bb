package ml

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"vendalytics/domain/dataset"

	"gonum.org/v1/gonum/floats"
)

// FeatureWeight is one feature's average within a cluster (normalized scale)
type FeatureWeight struct {
	Feature string  `json:"feature"`
	Avg     float64 `json:"avg"`
}

// Cluster is one k-means group
type Cluster struct {
	ID          int             `json:"id"`
	Label       string          `json:"label"` // "Alto Valor", "Médio Valor", "Baixo Valor"
	Size        int             `json:"size"`
	TopFeatures []FeatureWeight `json:"top_features"`
}

// ClusteringResult reports the k-means outcome. Assignments maps each
// clustered row (by original dataset index) to its cluster ID.
type ClusteringResult struct {
	K           int         `json:"k"`
	Clusters    []Cluster   `json:"clusters"`
	Assignments map[int]int `json:"assignments"`
	Features    []string    `json:"features"`
	Iterations  int         `json:"iterations"`
	Converged   bool        `json:"converged"`
}

const (
	minClusterRows   = 10
	maxIterations    = 50
	convergenceDelta = 0.001
)

// cluster runs k-means over the min-max-normalized numeric columns with
// k = min(5, ceil(rows/10))
func (e *Engine) cluster(ds *dataset.Dataset, cols []dataset.ColumnMetadata) (*ClusteringResult, error) {
	numeric := dataset.NumericColumns(cols)
	if len(numeric) < 2 {
		return nil, errors.New("clusterização requer pelo menos 2 colunas numéricas")
	}

	features := make([]string, len(numeric))
	for i, c := range numeric {
		features[i] = c.Name
	}

	// Keep only rows where every feature parses
	var points [][]float64
	var rowIndices []int
	for i, row := range ds.Rows() {
		vec := make([]float64, len(features))
		ok := true
		for j, f := range features {
			v, parsed := dataset.ParseNumber(row[f])
			if !parsed {
				ok = false
				break
			}
			vec[j] = v
		}
		if ok {
			points = append(points, vec)
			rowIndices = append(rowIndices, i)
		}
	}
	if len(points) < minClusterRows {
		return nil, fmt.Errorf("clusterização requer pelo menos %d linhas completas, encontradas %d",
			minClusterRows, len(points))
	}

	normalize(points)

	k := int(math.Ceil(float64(len(points)) / 10.0))
	if k > 5 {
		k = 5
	}

	centroids := e.initialCentroids(points, k)
	assignment := make([]int, len(points))

	iterations := 0
	converged := false
	for iterations < maxIterations {
		iterations++

		for i, p := range points {
			assignment[i] = nearestCentroid(p, centroids)
		}

		moved := recomputeCentroids(points, assignment, centroids)
		if moved < convergenceDelta {
			converged = true
			break
		}
	}

	result := &ClusteringResult{
		K:           k,
		Assignments: make(map[int]int, len(points)),
		Features:    features,
		Iterations:  iterations,
		Converged:   converged,
	}
	for i, c := range assignment {
		result.Assignments[rowIndices[i]] = c
	}
	result.Clusters = describeClusters(points, assignment, features, k)
	return result, nil
}

// initialCentroids samples k distinct points without replacement
func (e *Engine) initialCentroids(points [][]float64, k int) [][]float64 {
	r := e.rng.Stream("kmeans-init", e.seed)
	perm := r.Perm(len(points))

	centroids := make([][]float64, k)
	for i := 0; i < k; i++ {
		centroids[i] = append([]float64(nil), points[perm[i]]...)
	}
	return centroids
}

func nearestCentroid(p []float64, centroids [][]float64) int {
	best := 0
	bestDist := math.Inf(1)
	for c, centroid := range centroids {
		if d := floats.Distance(p, centroid, 2); d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}

// recomputeCentroids moves each centroid to its members' mean and returns
// the largest movement. Empty clusters keep their previous centroid.
func recomputeCentroids(points [][]float64, assignment []int, centroids [][]float64) float64 {
	dims := len(centroids[0])
	sums := make([][]float64, len(centroids))
	counts := make([]int, len(centroids))
	for c := range centroids {
		sums[c] = make([]float64, dims)
	}
	for i, p := range points {
		c := assignment[i]
		floats.Add(sums[c], p)
		counts[c]++
	}

	var maxMove float64
	for c := range centroids {
		if counts[c] == 0 {
			continue
		}
		next := make([]float64, dims)
		copy(next, sums[c])
		floats.Scale(1/float64(counts[c]), next)
		if move := floats.Distance(centroids[c], next, 2); move > maxMove {
			maxMove = move
		}
		centroids[c] = next
	}
	return maxMove
}

// normalize rescales each feature column to [0,1] in place; constant
// columns collapse to 0
func normalize(points [][]float64) {
	if len(points) == 0 {
		return
	}
	dims := len(points[0])
	for j := 0; j < dims; j++ {
		lo, hi := points[0][j], points[0][j]
		for _, p := range points {
			if p[j] < lo {
				lo = p[j]
			}
			if p[j] > hi {
				hi = p[j]
			}
		}
		span := hi - lo
		for _, p := range points {
			if span == 0 {
				p[j] = 0
			} else {
				p[j] = (p[j] - lo) / span
			}
		}
	}
}

// describeClusters labels each cluster by its overall normalized magnitude
// and lists its three strongest features
func describeClusters(points [][]float64, assignment []int, features []string, k int) []Cluster {
	dims := len(features)
	sums := make([][]float64, k)
	counts := make([]int, k)
	for c := 0; c < k; c++ {
		sums[c] = make([]float64, dims)
	}
	for i, p := range points {
		c := assignment[i]
		floats.Add(sums[c], p)
		counts[c]++
	}

	clusters := make([]Cluster, 0, k)
	for c := 0; c < k; c++ {
		cluster := Cluster{ID: c, Size: counts[c]}
		if counts[c] == 0 {
			cluster.Label = "Baixo Valor"
			clusters = append(clusters, cluster)
			continue
		}

		avgs := make([]FeatureWeight, dims)
		var magnitude float64
		for j := 0; j < dims; j++ {
			avg := sums[c][j] / float64(counts[c])
			avgs[j] = FeatureWeight{Feature: features[j], Avg: avg}
			magnitude += avg
		}
		magnitude /= float64(dims)

		switch {
		case magnitude > 0.66:
			cluster.Label = "Alto Valor"
		case magnitude > 0.33:
			cluster.Label = "Médio Valor"
		default:
			cluster.Label = "Baixo Valor"
		}

		sort.SliceStable(avgs, func(a, b int) bool { return avgs[a].Avg > avgs[b].Avg })
		if len(avgs) > 3 {
			avgs = avgs[:3]
		}
		cluster.TopFeatures = avgs
		clusters = append(clusters, cluster)
	}
	return clusters
}
