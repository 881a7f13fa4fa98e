package core

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1.00", true},
		{"1.0", "1.00", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{"0", "0.00", true},
		{"1.005", "1.01", true}, // half-up rounding
		{"1.004", "1.00", true},
		{" 2.50 ", "2.50", true},
		{"-35", "-35.00", true},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"1e3", "", false},
		{"-", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		if tc.ok {
			if err != nil || got.String() != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestAddIsExact(t *testing.T) {
	got := Add(MustParseMoney("0.10"), MustParseMoney("0.20"))
	if !got.Equal(MustParseMoney("0.30")) || got.String() != "0.30" {
		t.Fatalf("0.10 + 0.20 = %s, want 0.30", got)
	}

	var total Money
	for i := 0; i < 10; i++ {
		total = total.Add(MustParseMoney("0.10"))
	}
	if total.String() != "1.00" {
		t.Fatalf("ten dimes = %s, want 1.00", total)
	}
}

func TestAddSubtractLaws(t *testing.T) {
	vals := []Money{MustParseMoney("0.01"), MustParseMoney("19.99"), MustParseMoney("-3.50"), MustParseMoney("1000000.07")}
	for _, a := range vals {
		for _, b := range vals {
			if !Add(a, b).Equal(Add(b, a)) {
				t.Fatalf("add not commutative for %s, %s", a, b)
			}
			if !Subtract(Add(a, b), b).Equal(a) {
				t.Fatalf("(a+b)-b != a for %s, %s", a, b)
			}
			for _, c := range vals {
				if !Add(Add(a, b), c).Equal(Add(a, Add(b, c))) {
					t.Fatalf("add not associative for %s, %s, %s", a, b, c)
				}
			}
		}
	}
}

func TestPercentOf(t *testing.T) {
	cases := []struct {
		amount  string
		percent int64
		want    string
	}{
		{"200.00", 25, "50.00"},
		{"200.00", 75, "150.00"},
		{"200.00", 0, "0.00"},
		{"200.00", 100, "200.00"},
		{"0.05", 50, "0.03"},   // 0.025 rounds up
		{"0.01", 50, "0.01"},   // 0.005 rounds up
		{"10.00", 33, "3.30"},
		{"-0.05", 50, "-0.03"}, // away from zero
	}
	for _, tc := range cases {
		got := PercentOf(MustParseMoney(tc.amount), decimal.NewFromInt(tc.percent))
		if got.String() != tc.want {
			t.Fatalf("%d%% of %s = %s, want %s", tc.percent, tc.amount, got, tc.want)
		}
	}
}

func TestMoneyCents(t *testing.T) {
	if c := MustParseMoney("12.34").Cents(); c != 1234 {
		t.Fatalf("expected 1234 cents, got %d", c)
	}
	if s := MoneyFromCents(-3500).String(); s != "-35.00" {
		t.Fatalf("expected -35.00, got %s", s)
	}
	if !MoneyFromCents(30).Equal(MustParseMoney("0.3")) {
		t.Fatalf("30 cents should equal 0.3")
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Amount Money `json:"amount"`
	}{MustParseMoney("1.5")})
	if err != nil || string(b) != `{"amount":"1.50"}` {
		t.Fatalf("unexpected json %s (err=%v)", b, err)
	}

	for in, want := range map[string]string{`12.345`: "12.35", `"7,5"`: "7.50", `"0.20"`: "0.20"} {
		var m Money
		if err := json.Unmarshal([]byte(in), &m); err != nil || m.String() != want {
			t.Fatalf("unmarshal %s: got %s (err=%v), want %s", in, m, err, want)
		}
	}

	var m Money
	if err := json.Unmarshal([]byte(`"ten"`), &m); err == nil {
		t.Fatalf("expected error for non-numeric amount")
	}
}

func TestExactCents(t *testing.T) {
	if c, err := MaxMoney.ExactCents(); err != nil || c != math.MaxInt64 {
		t.Fatalf("MaxMoney.ExactCents() = %d, %v", c, err)
	}
	if c, err := MustParseMoney("-35.10").ExactCents(); err != nil || c != -3510 {
		t.Fatalf("ExactCents(-35.10) = %d, %v", c, err)
	}

	over := Add(MaxMoney, MustParseMoney("0.01"))
	if _, err := over.ExactCents(); !errors.Is(err, ErrMoneyOverflow) {
		t.Fatalf("expected ErrMoneyOverflow, got %v", err)
	}
	huge := MustParseMoney("100000000000000000")
	if _, err := huge.ExactCents(); !errors.Is(err, ErrMoneyOverflow) {
		t.Fatalf("expected ErrMoneyOverflow for 1e17, got %v", err)
	}
}
