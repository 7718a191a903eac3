package utils

// Square returns n * n.
func Square(n float64) float64 {
	return n * n
}

// Cube returns n * n * n.
func Cube(n float64) float64 {
	return n * n * n
}
