package download

import (
	"strings"

	zlerrors "github.com/cperrin88/zipline/pkg/errors"
)

// Protocol names the transport a batch uses.
type Protocol string

const (
	// ProtocolZIP downloads a whole archive over HTTP and extracts its members from memory.
	ProtocolZIP Protocol = "zip"
	// ProtocolFTP lists a remote directory and transfers gzip entries one by one.
	ProtocolFTP Protocol = "ftp"
	// ProtocolStream downloads an archive progressively and reads members lazily from disk.
	ProtocolStream Protocol = "stream"
)

// Protocols lists every supported protocol.
var Protocols = []Protocol{ProtocolZIP, ProtocolFTP, ProtocolStream}

// ParseProtocol maps a configured name to a Protocol. An empty name selects ProtocolZIP.
func ParseProtocol(name string) (Protocol, error) {
	switch Protocol(strings.ToLower(strings.TrimSpace(name))) {
	case "", ProtocolZIP:
		return ProtocolZIP, nil
	case ProtocolFTP:
		return ProtocolFTP, nil
	case ProtocolStream:
		return ProtocolStream, nil
	default:
		return "", zlerrors.ErrUnknownProtocolWithName(name)
	}
}

func (p Protocol) String() string { return string(p) }

// usesArchive reports whether the protocol shares one archive handle between its items.
func (p Protocol) usesArchive() bool {
	return p == ProtocolZIP || p == ProtocolStream
}

// manifestSuffixes are checksum and text manifest entries hidden from ftp listings.
var manifestSuffixes = []string{".md5", ".sha1", ".sha256", ".txt"}

func isManifest(name string) bool {
	for _, suffix := range manifestSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}
