// Package reproducible implements the Reproducible Builds SOURCE_DATE_EPOCH convention.
//
// https://reproducible-builds.org/specs/source-date-epoch/
package reproducible

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	nowOnce sync.Once
	now     time.Time
)

// Now returns SOURCE_DATE_EPOCH if it is set and valid, and otherwise the wall-clock time of the
// first call; every call within a process returns the same instant, so everything stamped during
// one run agrees.
func Now() time.Time {
	nowOnce.Do(func() {
		secs, err := strconv.ParseInt(os.Getenv("SOURCE_DATE_EPOCH"), 10, 64)
		if err == nil {
			now = time.Unix(secs, 0)
		} else {
			now = time.Now()
		}
	})
	return now
}

// Env returns environ with SOURCE_DATE_EPOCH pinned to Now(), so that child build tools stamp
// the same instant this process does.  An already-set SOURCE_DATE_EPOCH is left alone (Now()
// returns it anyway).
func Env(environ []string) []string {
	for _, kv := range environ {
		if strings.HasPrefix(kv, "SOURCE_DATE_EPOCH=") {
			return environ
		}
	}
	return append(environ, fmt.Sprintf("SOURCE_DATE_EPOCH=%d", Now().Unix()))
}
