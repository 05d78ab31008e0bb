package analysis

// Prediction is a predicted race time for one distance
type Prediction struct {
	Distance Distance
	Time     string // HH:MM:SS
	Seconds  int
}

// GeneratePredictions predicts every canonical distance except exclude
func GeneratePredictions(t *Table, vdot float64, exclude Distance) ([]Prediction, error) {
	return CanonicalCatalog.Predictions(t, vdot, exclude)
}

// Predictions interpolates a time for each catalog distance in order,
// skipping exclude
func (c Catalog) Predictions(t *Table, vdot float64, exclude Distance) ([]Prediction, error) {
	if t == nil {
		return nil, ErrDataNotLoaded
	}

	predictions := make([]Prediction, 0, len(c))
	for _, d := range c {
		if d == exclude {
			continue
		}

		seconds, err := InterpolateTime(t, vdot, d)
		if err != nil {
			return nil, err
		}

		predictions = append(predictions, Prediction{
			Distance: d,
			Time:     FormatSeconds(seconds),
			Seconds:  seconds,
		})
	}

	return predictions, nil
}
