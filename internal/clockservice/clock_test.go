package clockservice

import "testing"

func TestRealNowMillisMonotonic(t *testing.T) {
	c := NewReal()
	first := c.NowMillis()
	second := c.NowMillis()
	if second < first {
		t.Errorf("NowMillis went backwards: %d then %d", first, second)
	}
}

func TestFakeStartsAtGivenValue(t *testing.T) {
	c := NewFake(1000)
	if got := c.NowMillis(); got != 1000 {
		t.Errorf("NowMillis() = %d, want 1000", got)
	}
}

func TestFakeAdvance(t *testing.T) {
	c := NewFake(0)
	if got := c.Advance(250); got != 250 {
		t.Errorf("Advance(250) = %d, want 250", got)
	}
	if got := c.NowMillis(); got != 250 {
		t.Errorf("NowMillis() = %d, want 250", got)
	}
	c.Advance(50)
	if got := c.NowMillis(); got != 300 {
		t.Errorf("NowMillis() = %d, want 300", got)
	}
}

func TestFakeSet(t *testing.T) {
	c := NewFake(0)
	c.Set(9999)
	if got := c.NowMillis(); got != 9999 {
		t.Errorf("NowMillis() = %d, want 9999", got)
	}
}

var _ Clock = (*Real)(nil)
var _ Clock = (*Fake)(nil)
