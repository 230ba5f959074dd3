package route

import (
	"testing"

	"lrs/util"
)

func TestParse(t *testing.T) {
	// Arrange
	cases := map[string]ID{
		"005i":   {Base: "005", Suffix: SuffixIncreasing},
		"005d":   {Base: "005", Suffix: SuffixDecreasing},
		"005":    {Base: "005", Suffix: SuffixNone},
		" 005D ": {Base: "005", Suffix: SuffixDecreasing},
		"101I":   {Base: "101", Suffix: SuffixIncreasing},
		"005co":  {Base: "005CO", Suffix: SuffixNone}, // trailing "o" is not a direction letter
	}

	for raw, expected := range cases {
		// Act
		id, err := Parse(raw)

		// Assert
		util.AssertNil(t, err)
		util.AssertEqual(t, expected, id)
	}
}

func TestParse_caseNormalization(t *testing.T) {
	id, err := Parse("sr20")

	util.AssertNil(t, err)
	util.AssertEqual(t, ID{Base: "SR20", Suffix: SuffixNone}, id)
}

func TestParse_invalid(t *testing.T) {
	for _, raw := range []string{"", "   ", "i", "d", " D "} {
		_, err := Parse(raw)

		util.AssertNotNil(t, err)
	}
}

func TestMatches(t *testing.T) {
	unsuffixed := ID{Base: "005"}
	increasing := ID{Base: "005", Suffix: SuffixIncreasing}
	decreasing := ID{Base: "005", Suffix: SuffixDecreasing}
	other := ID{Base: "101", Suffix: SuffixIncreasing}

	// Same base, suffix handling per mask
	util.AssertTrue(t, Matches(unsuffixed, unsuffixed, MaskNone))
	util.AssertFalse(t, Matches(increasing, unsuffixed, MaskNone))
	util.AssertTrue(t, Matches(increasing, increasing, MaskIncreasing))
	util.AssertFalse(t, Matches(increasing, increasing, MaskNone))
	util.AssertFalse(t, Matches(increasing, decreasing, MaskIncreasing))
	util.AssertTrue(t, Matches(decreasing, decreasing, MaskDecreasing))
	util.AssertTrue(t, Matches(increasing, decreasing, MaskAll))
	util.AssertTrue(t, Matches(increasing, unsuffixed, MaskAll))

	// Different base never matches
	util.AssertFalse(t, Matches(increasing, other, MaskAll))

	// Base comparison is case-insensitive
	util.AssertTrue(t, Matches(ID{Base: "sr20"}, ID{Base: "SR20"}, MaskNone))
}

func TestMatches_allIsSuperset(t *testing.T) {
	ids := []ID{
		{Base: "005"},
		{Base: "005", Suffix: SuffixIncreasing},
		{Base: "005", Suffix: SuffixDecreasing},
		{Base: "101"},
	}

	for _, a := range ids {
		for _, b := range ids {
			for _, mask := range []SuffixMask{MaskNone, MaskIncreasing, MaskDecreasing} {
				if Matches(a, b, mask) {
					util.AssertTrue(t, Matches(a, b, MaskAll))
				}
			}
		}
	}
}

func TestStandardize(t *testing.T) {
	cases := []struct {
		raw      string
		policy   SuffixMask
		expected string
	}{
		{"005", MaskAll, "005i"},
		{"005d", MaskAll, "005d"},
		{"005i", MaskAll, "005i"},
		{"005", MaskNone, "005"},
		{"005d", MaskNone, "005"},
		{"I-5", MaskAll, "005i"},
		{"I-5", MaskNone, "005"},
		{"US-101", MaskIncreasing, "101i"},
		{"US-101", MaskDecreasing, "101"},
		{"SR 8", MaskAll, "008i"},
		{"005CO", MaskAll, "005COi"},
		{"005R1ABC", MaskNone, "005R1ABC"},
	}

	for _, c := range cases {
		standardized, err := Standardize(c.raw, c.policy)

		util.AssertNil(t, err)
		util.AssertEqual(t, c.expected, standardized)
	}
}

func TestStandardize_invalid(t *testing.T) {
	for _, raw := range []string{"", "5", "05", "0005", "005XX", "highway"} {
		_, err := Standardize(raw, MaskAll)

		util.AssertNotNil(t, err)
	}
}

func TestCombine(t *testing.T) {
	id, err := Combine("I-5", "Decrease")
	util.AssertNil(t, err)
	util.AssertEqual(t, ID{Base: "005", Suffix: SuffixDecreasing}, id)

	id, err = Combine("101", "i")
	util.AssertNil(t, err)
	util.AssertEqual(t, ID{Base: "101", Suffix: SuffixIncreasing}, id)

	// Blank direction falls back to increasing.
	id, err = Combine("005", "")
	util.AssertNil(t, err)
	util.AssertEqual(t, ID{Base: "005", Suffix: SuffixIncreasing}, id)
}

func TestCombine_unknownDirection(t *testing.T) {
	id, err := Combine("005", "north")

	util.AssertNotNil(t, err)
	util.AssertError(t, `unknown direction "north"`, err)
	// The base code is still usable.
	util.AssertEqual(t, ID{Base: "005", Suffix: SuffixNone}, id)
}

func TestCombine_invalidBase(t *testing.T) {
	_, err := Combine("not-a-route", "i")

	util.AssertNotNil(t, err)
}
