package filestat

import (
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

func timeOf(path string, info os.FileInfo, age AgeType) (time.Time, error) {
	if age == MTime {
		return info.ModTime(), nil
	}
	if age == BirthTime {
		var stx unix.Statx_t
		if err := unix.Statx(unix.AT_FDCWD, path, unix.AT_SYMLINK_NOFOLLOW, unix.STATX_BTIME, &stx); err != nil {
			return time.Time{}, err
		}
		if stx.Mask&unix.STATX_BTIME == 0 {
			return time.Time{}, ErrUnsupportedAgeType
		}
		return time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec)), nil
	}
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return time.Time{}, ErrUnsupportedAgeType
	}
	switch age {
	case CTime:
		return time.Unix(st.Ctim.Unix()), nil
	case ATime:
		return time.Unix(st.Atim.Unix()), nil
	}
	return time.Time{}, ErrUnsupportedAgeType
}
