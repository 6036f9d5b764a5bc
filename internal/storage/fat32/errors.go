package fat32

import "errors"

// Sentinel errors covering the mount and file-access failure modes named
// in §4.3 and §7.
var (
	ErrCorruptChain    = errors.New("fat32: corrupt cluster chain")
	ErrIoError         = errors.New("fat32: io error")
	ErrNotFound        = errors.New("fat32: path not found")
	ErrNotAFile        = errors.New("fat32: not a file")
	ErrNotADirectory   = errors.New("fat32: not a directory")
	ErrNotInitialized  = errors.New("fat32: volume not mounted")
	ErrNotFAT32        = errors.New("fat32: partition is not FAT32")
)
