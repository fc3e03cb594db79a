package twilio

import (
	"fmt"

	"github.com/twilio/twilio-go/twiml"
)

// MessageResponse renders a TwiML document that replies with one message.
func MessageResponse(body string) ([]byte, error) {
	doc, err := twiml.Messages([]twiml.Element{&twiml.MessagingMessage{Body: body}})
	if err != nil {
		return nil, fmt.Errorf("rendering TwiML: %w", err)
	}
	return []byte(doc), nil
}
