package mail

import "context"

// DeliveryRecorder counts delivery attempts by template and outcome.
type DeliveryRecorder interface {
	RecordMailDelivery(template, outcome string)
}

type InstrumentedSender struct {
	next     Sender
	recorder DeliveryRecorder
}

func NewInstrumentedSender(next Sender, recorder DeliveryRecorder) *InstrumentedSender {
	return &InstrumentedSender{next: next, recorder: recorder}
}

func (s *InstrumentedSender) Send(ctx context.Context, msg Message) error {
	err := s.next.Send(ctx, msg)
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	s.recorder.RecordMailDelivery(msg.Template, outcome)
	return err
}
