package main

import (
	"golang.org/x/sys/unix"
)

func tcget(fd uintptr) (*unix.Termios, error) {
	p, err := unix.IoctlGetTermios(int(fd), getTermios)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func tcset(fd uintptr, p *unix.Termios) error {
	return unix.IoctlSetTermios(int(fd), setTermios, p)
}

// rawMode puts the terminal on fd into raw mode and returns the previous
// settings for restore.
func rawMode(fd uintptr) (*unix.Termios, error) {
	p, err := tcget(fd)
	if err != nil {
		return nil, err
	}
	saved := *p
	p.Lflag &^= unix.ECHO | unix.ICANON | unix.ISIG | unix.IEXTEN
	p.Iflag &^= unix.IXON | unix.ICRNL | unix.BRKINT | unix.INPCK | unix.ISTRIP
	p.Cc[unix.VMIN] = 1
	p.Cc[unix.VTIME] = 0
	if err := tcset(fd, p); err != nil {
		return nil, err
	}
	return &saved, nil
}

func restore(fd uintptr, saved *unix.Termios) {
	if saved != nil {
		tcset(fd, saved)
	}
}
