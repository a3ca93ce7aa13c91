package utils

import (
	"fmt"
	"time"
)

// DocumentNumber builds display numbers such as INV-20240131-0427. The suffix
// is the last four digits of the millisecond timestamp, so two numbers made
// within the same millisecond collide; callers rely on a unique index.
func DocumentNumber(prefix string, t time.Time) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, t.Format("20060102"), t.UnixMilli()%10000)
}
