package storage

import "time"

func msDuration(millis int64) time.Duration {
	return time.Duration(millis) * time.Millisecond
}
