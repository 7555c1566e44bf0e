// Copyright (c) 2021-2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package unittest contains helpers that are shared by the unit tests of the
// various packages.
package unittest

import (
	"math/big"
	"reflect"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

// TestGenericConstMap tests a map of an error constant type and verifies that
// the error numbers are consecutive and represented in the human readable map.
// This function is for unit tests only.
func TestGenericConstMap(errorsMap interface{}, lastError uint64) error {
	if reflect.TypeOf(errorsMap).Kind() != reflect.Map {
		return errors.Errorf("errorsMap not a map: %T", errorsMap)
	}
	val := reflect.ValueOf(errorsMap)

	leftover := make(map[uint64]struct{}, len(val.MapKeys()))
	for i := uint64(0); i < uint64(len(val.MapKeys())); i++ {
		leftover[i] = struct{}{}
	}
	for _, mapKey := range val.MapKeys() {
		var key uint64
		switch mapKey.Kind() {
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
			reflect.Uint64:
			key = mapKey.Uint()
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32,
			reflect.Int64:
			key = uint64(mapKey.Int())
		default:
			return errors.Errorf("unsupported key type: %v",
				mapKey.Kind())
		}
		delete(leftover, key)
	}
	if len(leftover) != 0 {
		return errors.Errorf("leftover length not 0: %v", leftover)
	}
	if len(val.MapKeys()) != int(lastError) {
		return errors.Errorf("someone added a map code without adding a "+
			"human readable description. Got %v, want %v",
			len(val.MapKeys()), lastError)
	}

	return nil
}

// bigIntComparer lets cmp compare big.Int values by their numeric value
// instead of their internal representation.
var bigIntComparer = cmp.Comparer(func(x, y *big.Int) bool {
	if x == nil || y == nil {
		return x == y
	}
	return x.Cmp(y) == 0
})

// DeepEqual returns a human readable diff of the two provided values. An
// empty string is returned if the values are equal.
func DeepEqual(got, want interface{}) string {
	return cmp.Diff(got, want, bigIntComparer)
}
