package cache

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// Envelope layout, little endian:
//
//	magic   uint32
//	version uint32
//	length  uint64  payload length
//	crc     uint32  IEEE crc32 of the payload
//	payload
const (
	envelopeMagic   uint32 = 0x52454345
	envelopeVersion uint32 = 1
	envelopeHeader         = 20
)

func sealEntry(payload []byte) []byte {
	buf := make([]byte, envelopeHeader+len(payload))
	binary.LittleEndian.PutUint32(buf[0:4], envelopeMagic)
	binary.LittleEndian.PutUint32(buf[4:8], envelopeVersion)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(len(payload)))
	binary.LittleEndian.PutUint32(buf[16:20], crc32.ChecksumIEEE(payload))
	copy(buf[envelopeHeader:], payload)
	return buf
}

func openEntry(entry []byte) ([]byte, error) {
	if len(entry) < envelopeHeader {
		return nil, fmt.Errorf("entry too short: %d bytes", len(entry))
	}
	if magic := binary.LittleEndian.Uint32(entry[0:4]); magic != envelopeMagic {
		return nil, fmt.Errorf("bad magic bytes %x", magic)
	}
	if version := binary.LittleEndian.Uint32(entry[4:8]); version != envelopeVersion {
		return nil, fmt.Errorf("unsupported entry version %d", version)
	}
	payload := entry[envelopeHeader:]
	if n := binary.LittleEndian.Uint64(entry[8:16]); n != uint64(len(payload)) {
		return nil, fmt.Errorf("payload length %d, header says %d", len(payload), n)
	}
	if sum := binary.LittleEndian.Uint32(entry[16:20]); sum != crc32.ChecksumIEEE(payload) {
		return nil, fmt.Errorf("checksum mismatch")
	}
	return payload, nil
}
