package fat32

import (
	"encoding/binary"
	"strings"

	"github.com/go-restruct/restruct"
)

// AttrReadOnly and friends are the FAT directory entry attribute bits.
const (
	AttrReadOnly  = 0x01
	AttrHidden    = 0x02
	AttrSystem    = 0x04
	AttrVolumeID  = 0x08
	AttrDirectory = 0x10
	AttrArchive   = 0x20
	AttrLongName  = AttrReadOnly | AttrHidden | AttrSystem | AttrVolumeID
)

// dirEntrySize is the fixed 32-byte size of one FAT directory record.
const dirEntrySize = 32

// direntFree and direntEnd mark special values of the first name byte.
const (
	direntFree = 0xE5
	direntEnd  = 0x00
)

// dirEntry is one raw 32-byte 8.3 directory record.
type dirEntry struct {
	Name       [8]byte
	Ext        [3]byte
	Attr       uint8
	NTRes      uint8
	CrtTimeTen uint8
	CrtTime    uint16
	CrtDate    uint16
	LstAccDate uint16
	FstClusHi  uint16
	WrtTime    uint16
	WrtDate    uint16
	FstClusLo  uint16
	FileSize   uint32
}

func parseDirEntry(raw []byte) (dirEntry, error) {
	var e dirEntry
	err := restruct.Unpack(raw, binary.LittleEndian, &e)
	return e, err
}

func (e dirEntry) isLongName() bool { return e.Attr&AttrLongName == AttrLongName }
func (e dirEntry) isDirectory() bool { return e.Attr&AttrDirectory != 0 }

func (e dirEntry) firstCluster() uint32 {
	return uint32(e.FstClusHi)<<16 | uint32(e.FstClusLo)
}

// shortName reconstructs the dotted 8.3 name ("README.TXT") from the
// fixed-width Name/Ext fields, trimming trailing spaces.
func (e dirEntry) shortName() string {
	name := strings.TrimRight(string(e.Name[:]), " ")
	ext := strings.TrimRight(string(e.Ext[:]), " ")
	if ext == "" {
		return name
	}
	return name + "." + ext
}

// matches8dot3 compares a user-supplied path component against this
// entry's short name case-insensitively, per §4.3's "case-insensitive 8.3
// name match".
func (e dirEntry) matches8dot3(component string) bool {
	return strings.EqualFold(e.shortName(), component)
}
