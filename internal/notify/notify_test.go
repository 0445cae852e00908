package notify

import (
	"testing"

	"github.com/park285/piece-wheel/pkg/wheeldto"
)

func TestMultiPublishesInOrder(t *testing.T) {
	var got []string
	m := Multi{
		Func(func(ev wheeldto.Event) { got = append(got, "a:"+string(ev.Type)) }),
		nil,
		Func(func(ev wheeldto.Event) { got = append(got, "b:"+string(ev.Type)) }),
	}
	m.Publish(wheeldto.StatusEvent(wheeldto.Status{Key: "checking"}))
	if len(got) != 2 || got[0] != "a:status" || got[1] != "b:status" {
		t.Fatalf("unexpected fan-out %v", got)
	}
	Discard.Publish(wheeldto.Event{})
}
