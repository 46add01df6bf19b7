package pricing

import (
	"errors"
	"testing"

	"settlement-service/internal/domain"
	xerrors "settlement-service/internal/pkg/xerrors"
)

func int64Ptr(v int64) *int64 { return &v }

func TestCalculateEmployeeSplit(t *testing.T) {
	calc := NewSplitCalculator(5)

	split, err := calc.Calculate(SplitInput{
		FinalPrice:         10000,
		RetentionAmount:    2500,
		PayeeCategory:      domain.PayeeCategoryEmployee,
		TempleSharePercent: int64Ptr(30),
	})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if split.PlatformAmount != 375 {
		t.Errorf("platform amount = %d, want 375", split.PlatformAmount)
	}
	if split.TempleAmount != 2250 {
		t.Errorf("temple amount = %d, want 2250", split.TempleAmount)
	}
	if split.PayeeAmount != 4875 {
		t.Errorf("payee amount = %d, want 4875", split.PayeeAmount)
	}
	if split.RetentionAmount != 2500 {
		t.Errorf("retention amount = %d, want 2500", split.RetentionAmount)
	}
}

func TestCalculateIndependentIgnoresTempleShare(t *testing.T) {
	calc := NewSplitCalculator(5)

	// Independent priests keep the temple share even when one is configured.
	split, err := calc.Calculate(SplitInput{
		FinalPrice:         10000,
		PayeeCategory:      domain.PayeeCategoryIndependent,
		TempleSharePercent: int64Ptr(30),
	})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if split.TempleAmount != 0 {
		t.Errorf("temple amount = %d, want 0", split.TempleAmount)
	}
	if split.PayeeAmount != 9500 {
		t.Errorf("payee amount = %d, want 9500", split.PayeeAmount)
	}
}

func TestCalculateConservation(t *testing.T) {
	calc := NewSplitCalculator(5)

	// Awkward amounts that force rounding. The parts must always re-add to
	// the amount distributed, with the payee absorbing the remainder.
	cases := []struct {
		finalPrice int64
		retention  int64
		templePct  *int64
	}{
		{9999, 0, nil},
		{9999, 333, int64Ptr(30)},
		{101, 0, int64Ptr(33)},
		{1, 0, nil},
		{7777, 777, int64Ptr(17)},
	}

	for _, tc := range cases {
		split, err := calc.Calculate(SplitInput{
			FinalPrice:         tc.finalPrice,
			RetentionAmount:    tc.retention,
			PayeeCategory:      domain.PayeeCategoryEmployee,
			TempleSharePercent: tc.templePct,
		})
		if err != nil {
			t.Fatalf("Calculate(%d, %d): %v", tc.finalPrice, tc.retention, err)
		}
		if got := split.Total() + split.RetentionAmount; got != tc.finalPrice {
			t.Errorf("distributed %d + retention %d != final price %d", split.Total(), split.RetentionAmount, tc.finalPrice)
		}
	}
}

func TestCalculateZeroFinalPrice(t *testing.T) {
	calc := NewSplitCalculator(5)

	split, err := calc.Calculate(SplitInput{
		FinalPrice:    0,
		PayeeCategory: domain.PayeeCategoryIndependent,
	})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if split.PayeeAmount != 0 || split.PlatformAmount != 0 || split.TempleAmount != 0 {
		t.Errorf("zero price must produce zero split, got %+v", split)
	}
}

func TestCalculateValidation(t *testing.T) {
	calc := NewSplitCalculator(5)

	cases := []struct {
		name string
		in   SplitInput
	}{
		{"negative final price", SplitInput{FinalPrice: -1}},
		{"negative retention", SplitInput{FinalPrice: 100, RetentionAmount: -1}},
		{"retention exceeds final price", SplitInput{FinalPrice: 100, RetentionAmount: 101}},
		{"platform percent over 100", SplitInput{FinalPrice: 100, PlatformFeePercent: 101}},
		{"temple percent over 100", SplitInput{
			FinalPrice:         100,
			PayeeCategory:      domain.PayeeCategoryEmployee,
			TempleSharePercent: int64Ptr(101),
		}},
		{"combined percentages over 100", SplitInput{
			FinalPrice:         100,
			PlatformFeePercent: 60,
			PayeeCategory:      domain.PayeeCategoryEmployee,
			TempleSharePercent: int64Ptr(50),
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := calc.Calculate(tc.in); !errors.Is(err, xerrors.ErrInvalidSplitInput) {
				t.Errorf("err = %v, want ErrInvalidSplitInput", err)
			}
		})
	}
}

func TestRoundPercentHalfUp(t *testing.T) {
	cases := []struct {
		amount, pct, want int64
	}{
		{100, 5, 5},
		{101, 5, 5},   // 5.05 rounds down
		{110, 5, 6},   // 5.5 rounds up
		{7500, 5, 375},
		{7500, 30, 2250},
		{0, 5, 0},
	}
	for _, tc := range cases {
		if got := roundPercent(tc.amount, tc.pct); got != tc.want {
			t.Errorf("roundPercent(%d, %d) = %d, want %d", tc.amount, tc.pct, got, tc.want)
		}
	}
}
