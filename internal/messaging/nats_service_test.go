package messaging

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/zachswift615/Listen2-sub000/internal/align"
)

func TestNewNATSService_DefaultURL(t *testing.T) {
	t.Setenv("NATS_URL", "")

	service, err := NewNATSService()
	if err != nil {
		t.Fatalf("NewNATSService() error = %v", err)
	}
	if service.url != "nats://localhost:4222" {
		t.Errorf("url = %q, want default", service.url)
	}

	t.Setenv("NATS_URL", "nats://example:4222")
	service, err = NewNATSService()
	if err != nil {
		t.Fatalf("NewNATSService() error = %v", err)
	}
	if service.url != "nats://example:4222" {
		t.Errorf("url = %q, want env override", service.url)
	}
}

func TestPublish_NotConnected(t *testing.T) {
	service := &NATSService{url: "nats://localhost:4222"}

	if err := service.PublishAlignmentCompleted(&AlignmentCompletedEvent{}); err == nil {
		t.Error("PublishAlignmentCompleted() succeeded without connection")
	}
	if err := service.PublishAlignmentRequest(&AlignmentRequestEvent{}); err == nil {
		t.Error("PublishAlignmentRequest() succeeded without connection")
	}
	if _, err := service.SubscribeToAlignmentRequests(func(*AlignmentRequestEvent) {}); err == nil {
		t.Error("SubscribeToAlignmentRequests() succeeded without connection")
	}
	if service.IsConnected() {
		t.Error("IsConnected() = true without connection")
	}
}

func TestAlignmentCompletedEvent_JSON(t *testing.T) {
	event := AlignmentCompletedEvent{
		RequestID:     "req-1",
		EventUUID:     "uuid-1",
		UnitID:        3,
		TotalDuration: 2.5,
		WordTimings: []align.WordTiming{
			{WordIndex: 0, StartTime: 0.1, Duration: 0.4, Text: "hello"},
		},
		Success:   true,
		Timestamp: time.Now().Unix(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded AlignmentCompletedEvent
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded.UnitID != 3 || decoded.TotalDuration != 2.5 {
		t.Errorf("decoded = %+v", decoded)
	}
	if len(decoded.WordTimings) != 1 || decoded.WordTimings[0].Text != "hello" {
		t.Errorf("decoded timings = %+v", decoded.WordTimings)
	}
}
