package messaging

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/zachswift615/Listen2-sub000/internal/align"
)

// NATSService handles NATS messaging for the Listen2 alignment pipeline
type NATSService struct {
	conn *nats.Conn
	url  string
}

// AlignmentRequestEvent asks the engine to align one text unit
type AlignmentRequestEvent struct {
	RequestID  string `json:"request_id"`
	UnitID     int    `json:"unit_id"`
	Transcript string `json:"transcript"`
	AudioData  string `json:"audio_data"` // base64 PCM16
	SampleRate int    `json:"sample_rate"`
	Timestamp  int64  `json:"timestamp"`
}

// AlignmentCompletedEvent announces finished word timings for a unit
type AlignmentCompletedEvent struct {
	RequestID     string             `json:"request_id"`
	EventUUID     string             `json:"event_uuid"`
	UnitID        int                `json:"unit_id"`
	TotalDuration float64            `json:"total_duration"`
	WordTimings   []align.WordTiming `json:"word_timings"`
	Success       bool               `json:"success"`
	ErrorMessage  string             `json:"error_message,omitempty"`
	Timestamp     int64              `json:"timestamp"`
}

// NATS subjects for different event types
const (
	SubjectAlignmentRequests  = "listen2.alignments.requests"
	SubjectAlignmentCompleted = "listen2.alignments.completed"
	SubjectSystemEvents       = "listen2.system.events"
)

// NewNATSService creates a new NATS service instance
func NewNATSService() (*NATSService, error) {
	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = "nats://localhost:4222"
	}

	return &NATSService{
		url: natsURL,
	}, nil
}

// Connect establishes connection to NATS server
func (ns *NATSService) Connect() error {
	log.Printf("🔌 Connecting to NATS at %s", ns.url)

	// Connection options with retry logic
	opts := []nats.Option{
		nats.Name("listen2-align"),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1), // Retry indefinitely
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("⚠️  NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("🔄 NATS reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Println("🔌 NATS connection closed")
		}),
	}

	conn, err := nats.Connect(ns.url, opts...)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	ns.conn = conn
	log.Printf("✅ Connected to NATS server at %s", conn.ConnectedUrl())
	return nil
}

// PublishAlignmentCompleted publishes a finished alignment
func (ns *NATSService) PublishAlignmentCompleted(event *AlignmentCompletedEvent) error {
	if ns.conn == nil {
		return fmt.Errorf("NATS connection not established")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal alignment completed event: %w", err)
	}

	if err := ns.conn.Publish(SubjectAlignmentCompleted, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", SubjectAlignmentCompleted, err)
	}

	log.Printf("📤 Published alignment to NATS - Unit: %d, Words: %d, Success: %t",
		event.UnitID, len(event.WordTimings), event.Success)
	return nil
}

// PublishAlignmentRequest publishes an alignment request
func (ns *NATSService) PublishAlignmentRequest(event *AlignmentRequestEvent) error {
	if ns.conn == nil {
		return fmt.Errorf("NATS connection not established")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal alignment request event: %w", err)
	}

	if err := ns.conn.Publish(SubjectAlignmentRequests, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", SubjectAlignmentRequests, err)
	}

	log.Printf("📤 Published alignment request to NATS - Unit: %d, RequestID: %s",
		event.UnitID, event.RequestID)
	return nil
}

// SubscribeToAlignmentRequests subscribes to incoming alignment requests
func (ns *NATSService) SubscribeToAlignmentRequests(handler func(*AlignmentRequestEvent)) (*nats.Subscription, error) {
	if ns.conn == nil {
		return nil, fmt.Errorf("NATS connection not established")
	}

	return ns.conn.Subscribe(SubjectAlignmentRequests, func(msg *nats.Msg) {
		var event AlignmentRequestEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			log.Printf("❌ Error unmarshaling alignment request: %v", err)
			return
		}

		log.Printf("📥 Received alignment request from NATS - Unit: %d, RequestID: %s",
			event.UnitID, event.RequestID)
		handler(&event)
	})
}

// SubscribeToAlignmentCompleted subscribes to finished alignments
func (ns *NATSService) SubscribeToAlignmentCompleted(handler func(*AlignmentCompletedEvent)) (*nats.Subscription, error) {
	if ns.conn == nil {
		return nil, fmt.Errorf("NATS connection not established")
	}

	return ns.conn.Subscribe(SubjectAlignmentCompleted, func(msg *nats.Msg) {
		var event AlignmentCompletedEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			log.Printf("❌ Error unmarshaling alignment completed event: %v", err)
			return
		}

		log.Printf("📥 Received alignment from NATS - Unit: %d, Success: %t",
			event.UnitID, event.Success)
		handler(&event)
	})
}

// Close closes the NATS connection
func (ns *NATSService) Close() {
	if ns.conn != nil {
		ns.conn.Close()
		log.Println("🔌 NATS connection closed")
	}
}

// IsConnected returns true if connected to NATS
func (ns *NATSService) IsConnected() bool {
	return ns.conn != nil && ns.conn.IsConnected()
}

// GetStats returns connection statistics
func (ns *NATSService) GetStats() nats.Statistics {
	if ns.conn != nil {
		return ns.conn.Stats()
	}
	return nats.Statistics{}
}
