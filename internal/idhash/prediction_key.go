// Package idhash derives deterministic identifiers.
package idhash

import "strconv"

// PredictionKey returns the catalog key of a predicted game number.
func PredictionKey(predictedNumber int) string {
	return strconv.Itoa(predictedNumber)
}
