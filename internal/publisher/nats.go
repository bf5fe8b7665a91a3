package publisher

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"transit-demand/internal/itinerary"
)

// conn is the part of *nats.Conn the publisher needs.
type conn interface {
	Publish(subject string, data []byte) error
	Flush() error
}

type NATSPublisher struct {
	nc          conn
	raw         *nats.Conn
	prefix      string
	logSubjects bool
	metrics     PublisherMetrics
}

type PublisherMetrics interface {
	NATSPublishedInc()
	NATSPublishErrInc()
	PublishObserve(d time.Duration)
	NATSSetConnected(connected bool)
}

func NewNATSPublisher(url, prefix string, logSubjects bool, m PublisherMetrics) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("demandprep"),
		nats.DisconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Warn().Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(true)
			}
			log.Info().Msg("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Info().Msg("nats closed")
		}),
	)
	if err != nil {
		return nil, err
	}
	if m != nil {
		m.NATSSetConnected(true)
	}
	p := newPublisher(nc, prefix, logSubjects, m)
	p.raw = nc
	return p, nil
}

func newPublisher(nc conn, prefix string, logSubjects bool, m PublisherMetrics) *NATSPublisher {
	return &NATSPublisher{nc: nc, prefix: strings.Trim(prefix, "."), logSubjects: logSubjects, metrics: m}
}

func (p *NATSPublisher) Close() {
	if p.raw != nil {
		p.raw.Drain()
		p.raw.Close()
	}
}

// AssignmentMessage is the payload published for each assigned leg.
type AssignmentMessage struct {
	RunID     string    `json:"runId"`
	Scenario  string    `json:"scenario,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	itinerary.Assignment
}

// Subject is <prefix>.<direction>.<person>.
func (p *NATSPublisher) Subject(a itinerary.Assignment) string {
	subject := fmt.Sprintf("%s.%s", subjectToken(a.Direction), subjectToken(a.PersonID))
	if p.prefix != "" {
		subject = p.prefix + "." + subject
	}
	return subject
}

func (p *NATSPublisher) PublishAssignment(msg AssignmentMessage) error {
	subject := p.Subject(msg.Assignment)
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if p.logSubjects {
		log.Debug().Str("subject", subject).Msg("nats publish")
	}
	start := time.Now()
	err = p.nc.Publish(subject, b)
	if p.metrics != nil {
		p.metrics.PublishObserve(time.Since(start))
		if err != nil {
			p.metrics.NATSPublishErrInc()
		} else {
			p.metrics.NATSPublishedInc()
		}
	}
	return err
}

// PublishAll publishes every record under one run id and flushes. It stops at
// the first failure.
func (p *NATSPublisher) PublishAll(runID, scenario string, records []itinerary.Assignment) (int, error) {
	now := time.Now().UTC()
	for i, a := range records {
		if err := p.PublishAssignment(AssignmentMessage{RunID: runID, Scenario: scenario, Timestamp: now, Assignment: a}); err != nil {
			return i, fmt.Errorf("publish %s: %w", p.Subject(a), err)
		}
	}
	return len(records), p.nc.Flush()
}

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	// NATS token cannot contain spaces, '>', '*', or trailing '.'
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}
