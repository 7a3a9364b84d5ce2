package live_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahakjain123456/feynman-mirror/internal/live"
)

// The outbound frame shapes are a fixed contract with the endpoint, so these
// assert the exact bytes put on the wire.

func TestAudioChunkWireFormat(t *testing.T) {
	// Samples 0 and 32767 as little-endian PCM.
	msg := live.AudioChunk([]byte{0x00, 0x00, 0xFF, 0x7F})

	data, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.Equal(t,
		`{"media":{"mimeType":"audio/pcm;rate=16000","bytes":"AAD/fw=="}}`,
		string(data))
}

func TestImageChunkWireFormat(t *testing.T) {
	msg := live.ImageChunk("ZmFrZWpwZWc=")

	data, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.Equal(t,
		`{"media":{"mimeType":"image/jpeg","data":"ZmFrZWpwZWc="}}`,
		string(data))
}

func TestTextMessageWireFormat(t *testing.T) {
	data, err := json.Marshal(live.TextMessage("help me out"))
	require.NoError(t, err)
	assert.Equal(t, `{"text":"help me out"}`, string(data))

	// An empty string is still a valid frame, not an omitted field.
	data, err = json.Marshal(live.TextMessage(""))
	require.NoError(t, err)
	assert.Equal(t, `{"text":""}`, string(data))
}

func TestAckWireFormat(t *testing.T) {
	data, err := json.Marshal(live.Ack("call-7", "updateClarity"))
	require.NoError(t, err)
	assert.Equal(t,
		`{"functionResponses":{"id":"call-7","name":"updateClarity","response":{"result":"ok"}}}`,
		string(data))
}

func TestServerMessageDecode_CombinedFrame(t *testing.T) {
	// One inbound frame may carry tool calls, audio, transcription fragments
	// and a turn boundary all at once.
	raw := `{
		"toolCall": {"functionCalls": [{"id": "fc-1", "name": "updateClarity", "args": {"score": 42}}]},
		"serverContent": {
			"modelTurn": {"parts": [
				{"text": "partial"},
				{"inlineData": {"mimeType": "audio/pcm;rate=24000", "data": "AAAA"}}
			]},
			"inputTranscription": {"text": "explains"},
			"outputTranscription": {"text": "so you mean"},
			"turnComplete": true
		}
	}`

	var msg live.ServerMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))

	require.NotNil(t, msg.ToolCall)
	require.Len(t, msg.ToolCall.FunctionCalls, 1)
	assert.Equal(t, "fc-1", msg.ToolCall.FunctionCalls[0].ID)
	assert.Equal(t, "updateClarity", msg.ToolCall.FunctionCalls[0].Name)
	assert.JSONEq(t, `{"score": 42}`, string(msg.ToolCall.FunctionCalls[0].Args))

	require.NotNil(t, msg.ServerContent)
	assert.True(t, msg.ServerContent.TurnComplete)
	assert.Equal(t, "explains", msg.ServerContent.InputTranscription.Text)
	assert.Equal(t, "so you mean", msg.ServerContent.OutputTranscription.Text)
	assert.Equal(t, []string{"AAAA"}, msg.ServerContent.AudioPayloads())
}

func TestAudioPayloads_Empty(t *testing.T) {
	var content *live.ServerContent
	assert.Nil(t, content.AudioPayloads())

	content = &live.ServerContent{}
	assert.Nil(t, content.AudioPayloads())

	content = &live.ServerContent{ModelTurn: &live.Content{Parts: []live.Part{{Text: "only text"}}}}
	assert.Nil(t, content.AudioPayloads())
}

func TestSetupMarshal_TranscriptionBothDirections(t *testing.T) {
	setup := &live.Setup{
		Model:                    "models/test",
		InputAudioTranscription:  &live.AudioTranscriptionConfig{},
		OutputAudioTranscription: &live.AudioTranscriptionConfig{},
	}

	data, err := json.Marshal(&live.ClientMessage{Setup: setup})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"inputAudioTranscription":{}`)
	assert.Contains(t, string(data), `"outputAudioTranscription":{}`)
}
