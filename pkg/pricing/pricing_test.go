package pricing

import "testing"

func TestSuggestedHourlyRate(t *testing.T) {
	cases := []struct {
		grade int
		want  int
	}{
		{1, 100}, {6, 100},
		{7, 150}, {9, 150},
		{10, 200}, {12, 200},
	}
	for _, c := range cases {
		got, err := SuggestedHourlyRate(c.grade)
		if err != nil {
			t.Fatalf("grade %d: %v", c.grade, err)
		}
		if got != c.want {
			t.Fatalf("grade %d = %d, want %d", c.grade, got, c.want)
		}
	}
	for _, grade := range []int{0, 13, -1} {
		if _, err := SuggestedHourlyRate(grade); err == nil {
			t.Fatalf("grade %d should be rejected", grade)
		}
	}
}

func TestSuggestedTotal(t *testing.T) {
	got, err := SuggestedTotal(8, 10)
	if err != nil {
		t.Fatalf("suggest total: %v", err)
	}
	if got != 1500 {
		t.Fatalf("grade 8 x 10h = %d, want 1500", got)
	}
	if _, err := SuggestedTotal(8, 0); err == nil {
		t.Fatalf("zero duration should be rejected")
	}
	if _, err := SuggestedTotal(15, 2); err == nil {
		t.Fatalf("invalid grade should be rejected")
	}
}

func TestDisplayPriceRounds(t *testing.T) {
	cases := []struct {
		stored int
		want   int
	}{
		{100, 120},
		{150, 180},
		{133, 160}, // 159.6 rounds up
		{101, 121}, // 121.2 rounds down
		{0, 0},
	}
	for _, c := range cases {
		if got := DisplayPrice(c.stored); got != c.want {
			t.Fatalf("DisplayPrice(%d) = %d, want %d", c.stored, got, c.want)
		}
	}
}
