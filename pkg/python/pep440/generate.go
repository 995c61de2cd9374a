// Copyright (C) 2021-2025  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package pep440

import (
	"math/rand"
	"reflect"
	"testing/quick"

	"k8s.io/apimachinery/pkg/util/intstr"
)

// This file implements testing/quick.Generator, so that properties of versions can be
// quick-checked over random-but-valid inputs.

func bound(low, val, high int) int {
	if val < low {
		return low
	}
	if val > high {
		return high
	}
	return val
}

func randSeg(rand *rand.Rand) int {
	return rand.Intn(42)
}

func (PublicVersion) generate(rand *rand.Rand, size int) PublicVersion {
	var ret PublicVersion
	if rand.Intn(10) == 0 {
		ret.Epoch = 1 + rand.Intn(3)
	}
	ret.Release = make([]int, 1+rand.Intn(bound(1, size, 4)))
	for i := range ret.Release {
		ret.Release[i] = randSeg(rand)
	}
	if rand.Intn(4) == 0 {
		ret.Pre = &PreRelease{
			L: []string{"a", "b", "rc"}[rand.Intn(3)],
			N: randSeg(rand),
		}
	}
	if rand.Intn(4) == 0 {
		n := randSeg(rand)
		ret.Post = &n
	}
	if rand.Intn(4) == 0 {
		n := randSeg(rand)
		ret.Dev = &n
	}
	return ret
}

func (ver PublicVersion) Generate(rand *rand.Rand, size int) reflect.Value {
	return reflect.ValueOf(ver.generate(rand, size))
}

var _ quick.Generator = PublicVersion{}

func (LocalVersion) generate(rand *rand.Rand, size int) LocalVersion {
	var ret LocalVersion
	ret.PublicVersion = ret.PublicVersion.generate(rand, size)
	if rand.Intn(4) == 0 {
		ret.Local = make([]intstr.IntOrString, 1+rand.Intn(bound(1, size, 3)))
		for i := range ret.Local {
			if rand.Intn(2) == 0 {
				ret.Local[i] = intstr.FromInt32(int32(randSeg(rand)))
			} else {
				letters := make([]byte, 1+rand.Intn(8))
				for j := range letters {
					letters[j] = "abcdefghijklmnopqrstuvwxyz0123456789"[rand.Intn(36)]
				}
				ret.Local[i] = intstr.FromString("x" + string(letters))
			}
		}
	}
	return ret
}

func (ver LocalVersion) Generate(rand *rand.Rand, size int) reflect.Value {
	return reflect.ValueOf(ver.generate(rand, size))
}

var _ quick.Generator = LocalVersion{}
