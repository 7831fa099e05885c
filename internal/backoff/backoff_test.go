package backoff

import "testing" // stdlib table test, matching the teacher's mixed test style

func TestWatchDelayFormula(t *testing.T) {
	cases := []struct {
		attempt  int
		wantBase float64 // seconds, before jitter
	}{
		{0, 2},
		{1, 4},
		{2, 8},
		{3, 16},
		{4, 32},
		{5, 60}, // would be 64, capped to 60
		{10, 60},
	}

	for _, tc := range cases {
		d := Watch.Delay(tc.attempt)
		minSeconds := tc.wantBase
		maxSeconds := tc.wantBase + 1 // + jitter upper bound

		got := d.Seconds()
		if got < minSeconds || got > maxSeconds {
			t.Fatalf("attempt %d: delay %.2fs out of [%.2f,%.2f]", tc.attempt, got, minSeconds, maxSeconds)
		}
	}
}

func TestDelayNeverNegativeForNegativeAttempt(t *testing.T) {
	if d := Watch.Delay(-1); d < Watch.Initial {
		t.Fatalf("expected at least Initial delay, got %v", d)
	}
}
