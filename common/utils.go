package common

// Coalesce returns the first value that is not the zero value of T. Configuration layers
// pass the highest-priority source first.
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}
