//go:build unix

package adb

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

var errEmptyFile = errors.New("adb: cannot map an empty file")

// mmapping owns a read-only memory mapping backing a Reader.
type mmapping struct {
	data []byte
}

func mmapFile(path string) (*mmapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if st.Size() == 0 {
		return nil, errEmptyFile
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(st.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	return &mmapping{data: data}, nil
}

func (m *mmapping) unmap() error {
	return unix.Munmap(m.data)
}
