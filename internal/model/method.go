package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Selector is the 4-byte function selector at the head of call data.
type Selector [4]byte

// ParseSelector decodes a 0x-prefixed selector. Longer input (full call data) is truncated to
// its first four bytes; empty input yields the zero selector.
func ParseSelector(input string) (Selector, error) {
	var sel Selector
	input = strings.TrimSpace(input)
	if input == "" || input == "0x" {
		return sel, nil
	}
	data, err := hexutil.Decode(input)
	if err != nil {
		return sel, fmt.Errorf("invalid selector %q: %w", input, err)
	}
	if len(data) < len(sel) {
		return sel, fmt.Errorf("selector too short: %q", input)
	}
	copy(sel[:], data[:len(sel)])
	return sel, nil
}

// SelectorOf returns the selector heading hex call data. Input that is too short or not hex
// yields the zero selector, which labels as MethodUnrecognized.
func SelectorOf(input string) Selector {
	sel, err := ParseSelector(input)
	if err != nil {
		return Selector{}
	}
	return sel
}

func (s Selector) Hex() string {
	return hexutil.Encode(s[:])
}

func (s Selector) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Hex())
}

func (s *Selector) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}
	parsed, err := ParseSelector(text)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Method is the closed vocabulary of bundle transaction kinds.
type Method uint8

const (
	MethodUnrecognized Method = iota
	MethodDeposit
	MethodArb
	MethodMint
	MethodApprove
	MethodSwap
)

var methodNames = [...]string{
	MethodUnrecognized: "unrecognized",
	MethodDeposit:      "deposit",
	MethodArb:          "arb",
	MethodMint:         "mint",
	MethodApprove:      "approve",
	MethodSwap:         "swap",
}

func (m Method) String() string {
	if int(m) < len(methodNames) {
		return methodNames[m]
	}
	return fmt.Sprintf("method(%d)", uint8(m))
}

// Known selectors of the deposit contract flow.
var (
	SelectorDeposit = Selector{0x38, 0x76, 0xde, 0x3a}
	SelectorArb     = Selector{0xd9, 0xc9, 0x66, 0x2a}
	SelectorMint    = Selector{0xd0, 0xe3, 0x0d, 0xb0}
	SelectorApprove = Selector{0x09, 0x5e, 0xa7, 0xb3}
	SelectorSwap    = Selector{0x7c, 0x02, 0x52, 0x00}
)

var selectorMethods = map[Selector]Method{
	SelectorDeposit: MethodDeposit,
	SelectorArb:     MethodArb,
	SelectorMint:    MethodMint,
	SelectorApprove: MethodApprove,
	SelectorSwap:    MethodSwap,
}

// MethodOf maps a selector to its method label.
func MethodOf(sel Selector) Method {
	if m, ok := selectorMethods[sel]; ok {
		return m
	}
	return MethodUnrecognized
}

// GasBearing reports whether the method's gas counts toward the bundle fee.
func (m Method) GasBearing() bool {
	switch m {
	case MethodArb, MethodMint, MethodApprove, MethodSwap:
		return true
	default:
		return false
	}
}

// Settles reports whether the method pays ETH back to the operator.
func (m Method) Settles() bool {
	return m == MethodSwap || m == MethodArb
}

// LabelSet is the set of methods observed in a bundle.
type LabelSet uint8

func (s LabelSet) With(m Method) LabelSet {
	return s | 1<<m
}

func (s LabelSet) Has(m Method) bool {
	return s&(1<<m) != 0
}

// BundleType applies the classification precedence; the first match wins.
func (s LabelSet) BundleType() BundleType {
	switch {
	case s.Has(MethodArb):
		return BundleArbFlashLoan
	case s.Has(MethodMint) && s.Has(MethodSwap):
		return BundleArbNoFlashLoan
	case s.Has(MethodMint):
		return BundleArbUnrealisedGain
	default:
		return BundleNoArb
	}
}

func (s LabelSet) String() string {
	parts := make([]string, 0, len(methodNames))
	for m := range methodNames {
		if s.Has(Method(m)) {
			parts = append(parts, Method(m).String())
		}
	}
	return "{" + strings.Join(parts, ",") + "}"
}
