package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
)

// Hasher derives a fingerprint from typed fields. Every field is written with
// a type tag and a length prefix, so ("ab","c") and ("a","bc") differ.
// Field order matters; callers sort unordered inputs first.
type Hasher struct {
	h hash.Hash
}

func NewHasher(domain string) *Hasher {
	f := &Hasher{h: sha256.New()}
	return f.Text(domain)
}

func (f *Hasher) tag(t byte, n int) {
	var buf [9]byte
	buf[0] = t
	binary.LittleEndian.PutUint64(buf[1:], uint64(n))
	f.h.Write(buf[:])
}

func (f *Hasher) Text(s string) *Hasher {
	f.tag('s', len(s))
	f.h.Write([]byte(s))
	return f
}

func (f *Hasher) Int(n int) *Hasher {
	f.tag('i', n)
	return f
}

func (f *Hasher) List(list []string) *Hasher {
	f.tag('l', len(list))
	for _, s := range list {
		f.Text(s)
	}
	return f
}

func (f *Hasher) Bytes(b []byte) *Hasher {
	f.tag('b', len(b))
	f.h.Write(b)
	return f
}

// Sum returns the lowercase hex digest.
func (f *Hasher) Sum() string {
	return hex.EncodeToString(f.h.Sum(nil))
}
