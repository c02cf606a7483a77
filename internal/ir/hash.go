package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// DomainGraph is the domain-separation prefix for graph content hashes.
// The version suffix allows a future encoding migration without silent
// collisions against old hashes.
const DomainGraph = "grfscope/graph/v1"

// hashWithDomain computes SHA256(domain || 0x00 || data). The null
// separator keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// HashGraph computes the content-addressed identity of a graph
// definition. It is stable across field order, whitespace, and Unicode
// normalization differences in the authored source, and it keys the
// analysis cache and golden traces.
func HashGraph(def *GraphDef) (string, error) {
	canonical, err := CanonicalGraph(def)
	if err != nil {
		return "", err
	}
	return hashWithDomain(DomainGraph, canonical), nil
}

// CanonicalGraph returns the canonical JSON encoding of a graph
// definition.
func CanonicalGraph(def *GraphDef) ([]byte, error) {
	// Round-trip through the plain encoder to pick up the struct tags,
	// then re-encode canonically. GraphDef carries only strings, ints,
	// bools, arrays, and objects, so the strict parse cannot fail on
	// well-formed input.
	plain, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("marshal graph %q: %w", def.Name, err)
	}
	v, err := FromJSON(plain)
	if err != nil {
		return nil, fmt.Errorf("canonicalize graph %q: %w", def.Name, err)
	}
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return nil, fmt.Errorf("canonicalize graph %q: %w", def.Name, err)
	}
	return canonical, nil
}
