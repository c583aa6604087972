// Package dynclass synthesizes anonymous record types on demand from a
// list of named, typed properties. Types are interned by structural
// signature: requesting the same property list twice returns the
// identical type.
package dynclass

import (
	"errors"
	"hash/fnv"
	"reflect"
)

// Property is one named, typed field of a record signature.
type Property struct {
	Name string
	Type reflect.Type
}

// Signature is an ordered property list with a precomputed hash: the XOR
// over all entries of hash(name) XOR hash(type). Equality is positional
// and exact on both name and type.
type Signature struct {
	properties []Property
	hash       uint64
}

// NewSignature validates the property list and computes its hash.
func NewSignature(properties []Property) (Signature, error) {
	if len(properties) == 0 {
		return Signature{}, errors.New("dynclass: signature requires at least one property")
	}
	var hash uint64
	for _, p := range properties {
		if p.Name == "" {
			return Signature{}, errors.New("dynclass: property name must not be empty")
		}
		if p.Type == nil {
			return Signature{}, errors.New("dynclass: property type must not be nil")
		}
		hash ^= hashString(p.Name) ^ hashString(p.Type.String())
	}
	props := make([]Property, len(properties))
	copy(props, properties)
	return Signature{properties: props, hash: hash}, nil
}

// Hash returns the precomputed structural hash.
func (s Signature) Hash() uint64 { return s.hash }

// Properties returns the signature's property list.
func (s Signature) Properties() []Property { return s.properties }

// Equal reports positional equality on (name, type).
func (s Signature) Equal(o Signature) bool {
	if s.hash != o.hash || len(s.properties) != len(o.properties) {
		return false
	}
	for i, p := range s.properties {
		q := o.properties[i]
		if p.Name != q.Name || p.Type != q.Type {
			return false
		}
	}
	return true
}

func hashString(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}
