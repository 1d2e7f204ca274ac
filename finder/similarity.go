package finder

// SimilarValues holds the Hamming distance thresholds behind the similarity
// labels, one row per supported hash size (8, 16, 32, 64).
var SimilarValues = [4][6]uint32{
	{1, 2, 5, 7, 14, 20},
	{2, 5, 15, 30, 40, 40},
	{4, 20, 20, 40, 40, 40},
	{6, 20, 40, 40, 40, 40},
}

var similarityLabels = [6]string{"Very High", "High", "Medium", "Small", "Very Small", "Minimal"}

func hashSizeIndex(hashSize uint8) int {
	switch hashSize {
	case 8:
		return 0
	case 16:
		return 1
	case 32:
		return 2
	case 64:
		return 3
	default:
		panic("invalid hash size")
	}
}

// MaxSimilarity returns the largest similarity threshold allowed for a hash size
func MaxSimilarity(hashSize uint8) uint32 {
	return SimilarValues[hashSizeIndex(hashSize)][5]
}

// GetStringFromSimilarity describes a Hamming distance for the given hash size.
// Distances beyond the table are reported as "Minimal".
func GetStringFromSimilarity(similarity uint32, hashSize uint8) string {
	if similarity == 0 {
		return "Original"
	}
	row := SimilarValues[hashSizeIndex(hashSize)]
	for i, limit := range row {
		if similarity <= limit {
			return similarityLabels[i]
		}
	}
	return similarityLabels[len(similarityLabels)-1]
}
