package model

import (
	"encoding/json"
	"testing"
)

func TestParseSelector(t *testing.T) {
	sel, err := ParseSelector("0x3876de3a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sel != SelectorDeposit {
		t.Fatalf("selector mismatch: %s", sel.Hex())
	}

	sel, err = ParseSelector("0x7c0252000000000000000000000000000000000000000000000000000000000000000001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sel != SelectorSwap {
		t.Fatalf("call data not truncated: %s", sel.Hex())
	}

	sel, err = ParseSelector("0x")
	if err != nil || sel != (Selector{}) {
		t.Fatalf("empty call data: %s %v", sel.Hex(), err)
	}

	if _, err := ParseSelector("0x12"); err == nil {
		t.Fatalf("expected error for short selector")
	}
	if _, err := ParseSelector("nothex"); err == nil {
		t.Fatalf("expected error for invalid hex")
	}
}

func TestSelectorOf(t *testing.T) {
	if got := SelectorOf("0xd0e30db0"); got != SelectorMint {
		t.Fatalf("selector mismatch: %s", got.Hex())
	}
	for _, input := range []string{"", "0x", "0x01", "0x0102", "nothex", "0xzzzzzzzz"} {
		sel := SelectorOf(input)
		if sel != (Selector{}) {
			t.Fatalf("%q: expected zero selector, got %s", input, sel.Hex())
		}
		if MethodOf(sel) != MethodUnrecognized {
			t.Fatalf("%q: expected unrecognized method", input)
		}
	}
}

func TestMethodOf(t *testing.T) {
	cases := map[Selector]Method{
		SelectorDeposit:          MethodDeposit,
		SelectorArb:              MethodArb,
		SelectorMint:             MethodMint,
		SelectorApprove:          MethodApprove,
		SelectorSwap:             MethodSwap,
		{0xde, 0xad, 0xbe, 0xef}: MethodUnrecognized,
		{}:                       MethodUnrecognized,
	}
	for sel, want := range cases {
		if got := MethodOf(sel); got != want {
			t.Fatalf("%s: got %s want %s", sel.Hex(), got, want)
		}
	}
}

func TestLabelSetPrecedence(t *testing.T) {
	cases := []struct {
		name   string
		labels []Method
		want   BundleType
	}{
		{"arb wins over everything", []Method{MethodDeposit, MethodMint, MethodSwap, MethodArb}, BundleArbFlashLoan},
		{"mint and swap", []Method{MethodDeposit, MethodMint, MethodApprove, MethodSwap}, BundleArbNoFlashLoan},
		{"mint only", []Method{MethodDeposit, MethodMint, MethodApprove}, BundleArbUnrealisedGain},
		{"swap only", []Method{MethodDeposit, MethodSwap}, BundleNoArb},
		{"unrecognized", []Method{MethodDeposit, MethodUnrecognized}, BundleNoArb},
		{"empty", nil, BundleNoArb},
	}
	for _, tc := range cases {
		var set LabelSet
		for _, m := range tc.labels {
			set = set.With(m)
		}
		if got := set.BundleType(); got != tc.want {
			t.Fatalf("%s: got %q want %q (labels %s)", tc.name, got, tc.want, set)
		}
	}
}

func TestSelectorJSON(t *testing.T) {
	b, err := json.Marshal(SelectorMint)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(b) != `"0xd0e30db0"` {
		t.Fatalf("unexpected encoding: %s", b)
	}

	var decoded Selector
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded != SelectorMint {
		t.Fatalf("decoded mismatch: %s", decoded.Hex())
	}
}
