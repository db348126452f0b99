package refresh

import "testing"

func TestIncrementIsMonotonic(t *testing.T) {
	tok := NewToken()
	if tok.Value() != 0 {
		t.Fatalf("expected zero value, got %d", tok.Value())
	}
	for i := uint64(1); i <= 3; i++ {
		if got := tok.Increment(); got != i {
			t.Fatalf("Increment() = %d, want %d", got, i)
		}
	}
}

func TestSubscribersSeeEveryChangeCoalesced(t *testing.T) {
	tok := NewToken()
	a, cancelA := tok.Subscribe()
	defer cancelA()
	b, cancelB := tok.Subscribe()
	defer cancelB()

	tok.Increment()
	tok.Increment()

	if v := <-a; v != 2 {
		t.Fatalf("subscriber a expected latest value 2, got %d", v)
	}
	if v := <-b; v != 2 {
		t.Fatalf("subscriber b expected latest value 2, got %d", v)
	}
	select {
	case v := <-a:
		t.Fatalf("expected coalesced notifications, got extra %d", v)
	default:
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	tok := NewToken()
	ch, cancel := tok.Subscribe()
	cancel()
	cancel()

	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel after unsubscribe")
	}
	tok.Increment()
}
