package aws

import "encoding/json"

// snsEnvelope is the wrapper SNS puts around a message delivered to an SQS
// subscription without raw message delivery.
type snsEnvelope struct {
	Type     string `json:"Type"`
	Message  string `json:"Message"`
	TopicArn string `json:"TopicArn"`
}

// UnwrapSNSMessage returns the inner message when body is an SNS notification
// envelope and body unchanged otherwise.
func UnwrapSNSMessage(body string) string {
	var env snsEnvelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		return body
	}
	if env.Type == "Notification" && env.Message != "" {
		return env.Message
	}
	return body
}

func peekEventType(message []byte) string {
	var peek struct {
		EventType string `json:"event_type"`
	}
	if err := json.Unmarshal(message, &peek); err != nil {
		return ""
	}
	return peek.EventType
}
