package evaluation

// Accuracy returns correct/total, or 1.0 when nothing was checked.
func Accuracy(correct, total int) float64 {
	if total == 0 {
		return 1.0
	}
	return float64(correct) / float64(total)
}

// Confusion counts classifier output per expected type:
// Confusion[expected][got].
type Confusion map[string]map[string]int

// Add records one classification.
func (c Confusion) Add(expected, got string) {
	row, ok := c[expected]
	if !ok {
		row = make(map[string]int)
		c[expected] = row
	}
	row[got]++
}

// Recall is the fraction of cases expecting label that were classified as it.
// Returns 0.0 when no case expects label.
func (c Confusion) Recall(label string) float64 {
	row := c[label]
	total := 0
	for _, n := range row {
		total += n
	}
	if total == 0 {
		return 0.0
	}
	return float64(row[label]) / float64(total)
}

// Precision is the fraction of cases classified as label that expected it.
// Returns 0.0 when nothing was classified as label.
func (c Confusion) Precision(label string) float64 {
	predicted := 0
	for _, row := range c {
		predicted += row[label]
	}
	if predicted == 0 {
		return 0.0
	}
	return float64(c[label][label]) / float64(predicted)
}
