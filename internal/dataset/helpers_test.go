package dataset_test

import "time"

func durationHours(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}
