package main

import "hash/fnv"

// Interner is a content-addressable string table keyed by (hash, length,
// bytes), as called for in DESIGN NOTES §9. It is the only non-trivial
// data structure the declaration tables and constant pool need: every
// name lookup reduces to an integer id comparison once a string has
// passed through here once.
//
// Grounded on the teacher's FlapHashMap (hashmap.go) chained-bucket
// design, adapted from a uint64->float64 map to a string->id table.
type Interner struct {
	buckets []internBucket
	strings []string // id -> string, in insertion order
}

type internBucket struct {
	entries []internEntry
}

type internEntry struct {
	hash uint32
	id   int
}

func NewInterner() *Interner {
	return &Interner{buckets: make([]internBucket, 64)}
}

func fnv1a32(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

// Intern returns the id for s, assigning a new one on first sight.
// Equal strings always receive the same id (identity-style comparison
// for the declaration tables, per spec §3).
func (in *Interner) Intern(s string) int {
	h := fnv1a32(s)
	idx := int(h) % len(in.buckets)
	bucket := &in.buckets[idx]

	for _, e := range bucket.entries {
		if e.hash == h && in.strings[e.id] == s {
			return e.id
		}
	}

	id := len(in.strings)
	in.strings = append(in.strings, s)
	bucket.entries = append(bucket.entries, internEntry{hash: h, id: id})

	if len(in.strings) > len(in.buckets)*3 {
		in.grow()
	}
	return id
}

func (in *Interner) grow() {
	old := in.strings
	in.buckets = make([]internBucket, len(in.buckets)*2)
	for id, s := range old {
		h := fnv1a32(s)
		idx := int(h) % len(in.buckets)
		in.buckets[idx].entries = append(in.buckets[idx].entries, internEntry{hash: h, id: id})
	}
}

func (in *Interner) String(id int) string {
	return in.strings[id]
}
