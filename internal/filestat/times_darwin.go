package filestat

import (
	"os"
	"syscall"
	"time"
)

func timeOf(_ string, info os.FileInfo, age AgeType) (time.Time, error) {
	if age == MTime {
		return info.ModTime(), nil
	}
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return time.Time{}, ErrUnsupportedAgeType
	}
	switch age {
	case CTime:
		return time.Unix(st.Ctimespec.Unix()), nil
	case ATime:
		return time.Unix(st.Atimespec.Unix()), nil
	case BirthTime:
		return time.Unix(st.Birthtimespec.Unix()), nil
	}
	return time.Time{}, ErrUnsupportedAgeType
}
