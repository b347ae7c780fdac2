package payment

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinorUnits(t *testing.T) {
	cases := map[string]int64{
		"84.97":  8497,
		"0":      0,
		"19.999": 2000,
		"12.5":   1250,
		"0.29":   29,
	}
	for in, want := range cases {
		assert.Equal(t, want, MinorUnits(decimal.RequireFromString(in)), in)
	}
}

func TestParseEventUnsigned(t *testing.T) {
	payload := []byte(`{
		"id": "evt_1",
		"type": "payment_intent.succeeded",
		"data": {"object": {"id": "pi_123", "object": "payment_intent", "amount": 8497, "metadata": {"order_id": "ord-1"}}}
	}`)

	ev, err := ParseEvent(payload, "", "")
	require.NoError(t, err)
	assert.Equal(t, EventSucceeded, ev.Type)
	assert.Equal(t, "pi_123", ev.IntentID)
	assert.Equal(t, "ord-1", ev.OrderID)
	assert.EqualValues(t, 8497, ev.Amount)
}

func TestParseEventRejectsBadSignature(t *testing.T) {
	_, err := ParseEvent([]byte(`{"type":"payment_intent.succeeded"}`), "t=1,v1=abc", "whsec_test")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestParseEventInvalidJSON(t *testing.T) {
	_, err := ParseEvent([]byte(`not json`), "", "")
	assert.Error(t, err)
}
