//go:build freebsd || netbsd || openbsd || dragonfly

package nettools

import (
	"golang.org/x/sys/unix"
)

var _ = func() error { // make sure this executes before func init()
	supported[ModeSelect] = selectReadable
	return nil
}()

func selectReadable(fd int) (bool, error) {
	if fd >= 1024 { // FD_SETSIZE
		return false, nil
	}
	var set unix.FdSet
	set.Set(fd)
	tv := unix.Timeval{} // zero timeout, this is a probe
	if _, err := unix.Select(fd+1, &set, nil, nil, &tv); err != nil {
		return false, err
	}
	return set.IsSet(fd), nil
}
