package store

import (
	"os"
	"syscall"
)

// lockFile takes an exclusive flock on path+".lock" and returns the
// release function. The lock is advisory: it serializes archive renames
// between cooperating processes and guards nothing else. Each call opens
// its own descriptor, so flock also serializes goroutines within one
// process.
func lockFile(path string) (release func(), err error) {
	f, err := os.OpenFile(path+".lock", os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, err
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		f.Close()
		return nil, err
	}
	return func() {
		syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		f.Close()
		os.Remove(path + ".lock")
	}, nil
}
