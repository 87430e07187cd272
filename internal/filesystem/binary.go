package filesystem

import (
	"bytes"
	"io"
	"os"
)

// Magic bytes for native executable formats, checked in order
var magicBytes = []struct {
	name  string
	magic []byte
}{
	{"elf", []byte{0x7f, 0x45, 0x4c, 0x46}},
	{"mach-o", []byte{0xfe, 0xed, 0xfa, 0xce}},
	{"mach-o", []byte{0xfe, 0xed, 0xfa, 0xcf}},
	{"mach-o", []byte{0xce, 0xfa, 0xed, 0xfe}},
	{"mach-o", []byte{0xcf, 0xfa, 0xed, 0xfe}},
	{"mach-o-fat", []byte{0xca, 0xfe, 0xba, 0xbe}},
	{"wasm", []byte{0x00, 0x61, 0x73, 0x6d}},
	{"pe", []byte{0x4d, 0x5a}},
}

// BinaryFormat names the executable format of the file at path: "elf", "pe",
// "mach-o", "mach-o-fat", "wasm" or "script" for a shebang file.
// Unknown or unreadable files return "".
func BinaryFormat(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	head := make([]byte, 4)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return ""
	}
	head = head[:n]

	for _, m := range magicBytes {
		if bytes.HasPrefix(head, m.magic) {
			return m.name
		}
	}
	if bytes.HasPrefix(head, []byte("#!")) {
		return "script"
	}
	return ""
}
