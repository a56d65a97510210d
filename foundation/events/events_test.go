package events_test

import (
	"testing"

	"github.com/ardanlabs/utxoledger/foundation/events"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func Test_Events(t *testing.T) {
	t.Log("Given the need to fan out events to registered receivers.")
	{
		t.Logf("\tTest 0:\tWhen two receivers are registered.")
		{
			evts := events.New()

			ch1 := evts.Acquire("one")
			ch2 := evts.Acquire("two")

			if evts.Acquire("one") != ch1 {
				t.Fatalf("\t%s\tTest 0:\tShould return the same channel for the same id.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould return the same channel for the same id.", success)

			evts.Send("viewer: block: {}")

			for i, ch := range []chan string{ch1, ch2} {
				if got := <-ch; got != "viewer: block: {}" {
					t.Fatalf("\t%s\tTest 0:\tShould receive the event on channel %d, got %q.", failed, i, got)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould receive the event on every channel.", success)

			if err := evts.Release("one"); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to release a channel: %v", failed, err)
			}
			if _, open := <-ch1; open {
				t.Fatalf("\t%s\tTest 0:\tShould close the released channel.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould close the released channel.", success)

			if err := evts.Release("one"); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould not release an unknown id.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould not release an unknown id.", success)

			evts.Shutdown()

			if _, open := <-ch2; open || evts.Count() != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould close every channel on shutdown.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould close every channel on shutdown.", success)
		}
	}
}
