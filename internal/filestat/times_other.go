//go:build !linux && !darwin

package filestat

import (
	"os"
	"time"
)

func timeOf(_ string, info os.FileInfo, age AgeType) (time.Time, error) {
	if age == MTime {
		return info.ModTime(), nil
	}
	return time.Time{}, ErrUnsupportedAgeType
}
