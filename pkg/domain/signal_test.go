package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignalValidate(t *testing.T) {
	cases := []struct {
		name   string
		signal Signal
		valid  bool
	}{
		{"join with chat", Signal{Type: SignalTypeJoinChat, ChatID: "chat1"}, true},
		{"typing with chat", Signal{Type: SignalTypeTyping, ChatID: "chat1", IsTyping: true}, true},
		{"missing chat", Signal{Type: SignalTypeTyping}, false},
		{"read without message", Signal{Type: SignalTypeMessageRead, ChatID: "chat1"}, false},
		{"read with message", Signal{Type: SignalTypeMessageRead, ChatID: "chat1", MessageID: "m1"}, true},
		{"file without metadata", Signal{Type: SignalTypeFileUploaded, ChatID: "chat1"}, false},
		{"file with metadata", Signal{Type: SignalTypeFileUploaded, ChatID: "chat1", File: json.RawMessage(`{}`)}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.signal.Validate()
			if tc.valid {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrInvalidSignal)
			}
		})
	}
}
