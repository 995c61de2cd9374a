// Copyright (C) 2021-2025  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package python

import (
	"crypto/md5"  //nolint:gosec // not used for security
	"crypto/sha1" //nolint:gosec // not used for security
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/sha3"
)

// HashlibAlgorithmsGuaranteed is Python `hashlib.algorithms_guaranteed`.
//
//nolint:gochecknoglobals // Would be 'const'.
var HashlibAlgorithmsGuaranteed = map[string]func() hash.Hash{
	// This list is (sans TODOs) in-sync with Python 3.12.
	"md5":      md5.New,
	"sha1":     sha1.New,
	"sha224":   sha256.New224,
	"sha256":   sha256.New,
	"sha384":   sha512.New384,
	"sha512":   sha512.New,
	"blake2b":  func() hash.Hash { h, _ := blake2b.New512(nil); return h }, // err is only for keyed use
	"blake2s":  func() hash.Hash { h, _ := blake2s.New256(nil); return h }, // err is only for keyed use
	"sha3_224": sha3.New224,
	"sha3_256": sha3.New256,
	"sha3_384": sha3.New384,
	"sha3_512": sha3.New512,
	// "shake_128": TODO, // sha3.ShakeHash does not implement hash.Hash
	// "shake_256": TODO, // sha3.ShakeHash does not implement hash.Hash
}

// Blake2b256 is Python `hashlib.blake2b(digest_size=32)`; it is the "blake2" flavor that package
// indexes speak (the `blake2_256_digest` upload field and the `data-dist-info-metadata` hash).
func Blake2b256() hash.Hash {
	h, _ := blake2b.New256(nil) // err is only for keyed use
	return h
}

// HashlibDigest hashes r with the named hashlib algorithm and returns the hex digest, like Python
// `hashlib.new(algo, data).hexdigest()`.
func HashlibDigest(algo string, r io.Reader) (string, error) {
	newHash, ok := HashlibAlgorithmsGuaranteed[algo]
	if !ok {
		return "", fmt.Errorf("unsupported hashlib algorithm: %q", algo)
	}
	h := newHash()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
