package aws

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnwrapSNSMessage(t *testing.T) {
	wrapped := `{"Type":"Notification","TopicArn":"arn:aws:sns:ap-southeast-1:000000000000:orders","Message":"{\"event_type\":\"order_paid\"}"}`
	assert.Equal(t, `{"event_type":"order_paid"}`, UnwrapSNSMessage(wrapped))

	raw := `{"event_type":"order_paid"}`
	assert.Equal(t, raw, UnwrapSNSMessage(raw))

	assert.Equal(t, "not json", UnwrapSNSMessage("not json"))
}

func TestPeekEventType(t *testing.T) {
	assert.Equal(t, "order_created", peekEventType([]byte(`{"event_type":"order_created","order_id":"x"}`)))
	assert.Equal(t, "", peekEventType([]byte(`{"order_id":"x"}`)))
	assert.Equal(t, "", peekEventType([]byte(`[1,2]`)))
}
