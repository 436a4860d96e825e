package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMustRegisterTo_FreshRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	MustRegisterTo(reg)

	IncChatTurn(" Replied ")
	ObserveHTTP("/api/chat", "POST", 200, 15*time.Millisecond)
	ObserveAICall("Gemini", "gemini-1.5-flash", 10, 20, time.Second, true)

	if got := testutil.ToFloat64(chatTurnsTotal.WithLabelValues("replied")); got < 1 {
		t.Errorf("expected normalized label to be counted, got %v", got)
	}
	n, err := testutil.GatherAndCount(reg, "tutor_http_requests_total")
	if err != nil {
		t.Fatal(err)
	}
	if n == 0 {
		t.Error("http counter not exported")
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, mf := range mfs {
		if !strings.HasPrefix(mf.GetName(), namespace+"_") {
			t.Errorf("collector %s is missing the namespace", mf.GetName())
		}
	}
}
