package service

import (
	"math"

	"github.com/tidwall/gjson"
)

// Accessors over a parsed json tree. A missing or wrongly typed value is
// reported as absent, never as an error.

func optionalString(json gjson.Result, path string) *string {
	v := json.Get(path)
	if v.Type != gjson.String {
		return nil
	}
	s := v.Str
	return &s
}

// optionalNonEmptyString also treats "" as absent.
func optionalNonEmptyString(json gjson.Result, path string) *string {
	s := optionalString(json, path)
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func optionalFloat(json gjson.Result, path string) *float32 {
	v := json.Get(path)
	if v.Type != gjson.Number {
		return nil
	}
	f := float32(v.Num)
	return &f
}

func optionalUint(json gjson.Result, path string, max uint64) *uint64 {
	v := json.Get(path)
	if v.Type != gjson.Number {
		return nil
	}
	if v.Num < 0 || v.Num > float64(max) || v.Num != math.Trunc(v.Num) {
		return nil
	}
	u := uint64(v.Num)
	return &u
}

func optionalUint8(json gjson.Result, path string) *uint8 {
	u := optionalUint(json, path, math.MaxUint8)
	if u == nil {
		return nil
	}
	v := uint8(*u)
	return &v
}

func optionalUint16(json gjson.Result, path string) *uint16 {
	u := optionalUint(json, path, math.MaxUint16)
	if u == nil {
		return nil
	}
	v := uint16(*u)
	return &v
}
