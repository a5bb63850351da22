package notify

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/Domenick1991/travelbooking/internal/domain"
)

// Channel delivers a rendered message to a passenger.
type Channel interface {
	Notify(subject, message string) error
}

// ConsoleChannel writes notifications to the log.
type ConsoleChannel struct{}

func NewConsole() *ConsoleChannel {
	return &ConsoleChannel{}
}

func (c *ConsoleChannel) Notify(subject, message string) error {
	log.Printf("[NOTIFY] %s :: %s", subject, message)
	return nil
}

// Notifier turns booking events into passenger messages.
type Notifier struct {
	channel Channel
}

func NewNotifier(channel Channel) *Notifier {
	return &Notifier{channel: channel}
}

// Handle ignores event types it has no message for.
func (n *Notifier) Handle(_ context.Context, event domain.BookingEvent) error {
	subject, message, ok := render(event)
	if !ok {
		log.Printf("[NOTIFY] skip type=%s reference=%s", event.Type, event.Reference)
		return nil
	}
	if err := n.channel.Notify(subject, message); err != nil {
		return fmt.Errorf("notify %s: %w", event.Reference, err)
	}
	return nil
}

func render(event domain.BookingEvent) (string, string, bool) {
	passenger := strings.TrimSpace(event.FirstName + " " + event.LastName)
	trip := fmt.Sprintf("%s to %s", event.OriginName, event.DestinationName)
	if dep := shortTime(event.Departs); dep != "" {
		trip += ", departing " + dep
	}

	switch event.Type {
	case domain.EventBookingCreated:
		return "Booking confirmed",
			fmt.Sprintf("%s, your trip %s is booked. Reference %s.", passenger, trip, event.Reference), true
	case domain.EventBookingCancelled:
		return "Booking cancelled",
			fmt.Sprintf("%s, your booking %s for %s has been cancelled.", passenger, event.Reference, trip), true
	default:
		return "", "", false
	}
}

// shortTime cuts a provider timestamp down to minutes.
func shortTime(value string) string {
	if len(value) >= len("2006-01-02 15:04") {
		return value[:len("2006-01-02 15:04")]
	}
	return value
}
