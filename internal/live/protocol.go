// Package live implements the bidirectional streaming protocol spoken by the
// remote model-serving endpoint: frame types for both directions and a
// websocket channel that carries them.
package live

import "encoding/json"

// Mime types for outbound capture chunks.
const (
	MimeAudioPCM16k = "audio/pcm;rate=16000"
	MimeImageJPEG   = "image/jpeg"
)

// ClientMessage is one outbound protocol frame. Exactly one field is set per
// frame.
type ClientMessage struct {
	Setup             *Setup            `json:"setup,omitempty"`
	Media             *MediaChunk       `json:"media,omitempty"`
	Text              *string           `json:"text,omitempty"`
	FunctionResponses *FunctionResponse `json:"functionResponses,omitempty"`
}

// MediaChunk is one outbound capture chunk. Audio chunks carry raw 16-bit LE
// PCM in Bytes (base64 on the wire via encoding/json); image chunks carry an
// already base64-encoded JPEG in Data.
type MediaChunk struct {
	MimeType string `json:"mimeType"`
	Bytes    []byte `json:"bytes,omitempty"`
	Data     string `json:"data,omitempty"`
}

// AudioChunk builds an outbound audio frame from raw PCM bytes.
func AudioChunk(pcm []byte) *ClientMessage {
	return &ClientMessage{Media: &MediaChunk{MimeType: MimeAudioPCM16k, Bytes: pcm}}
}

// ImageChunk builds an outbound video frame from a base64 JPEG payload.
func ImageChunk(jpegBase64 string) *ClientMessage {
	return &ClientMessage{Media: &MediaChunk{MimeType: MimeImageJPEG, Data: jpegBase64}}
}

// TextMessage builds an outbound free-text frame.
func TextMessage(text string) *ClientMessage {
	return &ClientMessage{Text: &text}
}

// FunctionResponse acknowledges one tool invocation.
type FunctionResponse struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Response FunctionResult `json:"response"`
}

// FunctionResult is the generic acknowledgement body.
type FunctionResult struct {
	Result string `json:"result"`
}

// Ack builds the acknowledgement frame for a tool invocation. Every inbound
// invocation is answered with exactly one of these.
func Ack(id, name string) *ClientMessage {
	return &ClientMessage{FunctionResponses: &FunctionResponse{
		ID:       id,
		Name:     name,
		Response: FunctionResult{Result: "ok"},
	}}
}

// Setup is the session configuration sent as the first frame after the
// channel opens.
type Setup struct {
	Model                    string                    `json:"model"`
	SystemInstruction        *Content                  `json:"systemInstruction,omitempty"`
	GenerationConfig         *GenerationConfig         `json:"generationConfig,omitempty"`
	Tools                    []Tool                    `json:"tools,omitempty"`
	InputAudioTranscription  *AudioTranscriptionConfig `json:"inputAudioTranscription,omitempty"`
	OutputAudioTranscription *AudioTranscriptionConfig `json:"outputAudioTranscription,omitempty"`
}

// GenerationConfig selects the output modality and voice.
type GenerationConfig struct {
	ResponseModalities []string      `json:"responseModalities,omitempty"`
	SpeechConfig       *SpeechConfig `json:"speechConfig,omitempty"`
}

// SpeechConfig wraps the voice selection.
type SpeechConfig struct {
	VoiceConfig *VoiceConfig `json:"voiceConfig,omitempty"`
}

// VoiceConfig wraps the prebuilt voice selection.
type VoiceConfig struct {
	PrebuiltVoiceConfig *PrebuiltVoiceConfig `json:"prebuiltVoiceConfig,omitempty"`
}

// PrebuiltVoiceConfig names the fixed voice identifier for the session.
type PrebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

// AudioTranscriptionConfig enables transcription for one direction. An empty
// object on the wire.
type AudioTranscriptionConfig struct{}

// Tool declares callable functions to the model.
type Tool struct {
	FunctionDeclarations []FunctionDeclaration `json:"functionDeclarations"`
}

// FunctionDeclaration describes one callable function.
type FunctionDeclaration struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Parameters  *Schema `json:"parameters,omitempty"`
}

// Schema is the subset of JSON schema used by function declarations.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Minimum     *float64           `json:"minimum,omitempty"`
	Maximum     *float64           `json:"maximum,omitempty"`
}

// Content is a role-tagged sequence of parts.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts,omitempty"`
}

// Part is one content part: text or inline media.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// InlineData is inline media. Data is base64 encoded.
type InlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

// ServerMessage is one inbound protocol frame. A frame may carry more than
// one of these fields.
type ServerMessage struct {
	SetupComplete *SetupComplete `json:"setupComplete,omitempty"`
	ServerContent *ServerContent `json:"serverContent,omitempty"`
	ToolCall      *ToolCall      `json:"toolCall,omitempty"`
}

// SetupComplete acknowledges the setup frame. Empty object on the wire.
type SetupComplete struct{}

// ServerContent carries model output, transcription fragments and the
// turn-boundary marker.
type ServerContent struct {
	ModelTurn           *Content       `json:"modelTurn,omitempty"`
	TurnComplete        bool           `json:"turnComplete,omitempty"`
	Interrupted         bool           `json:"interrupted,omitempty"`
	InputTranscription  *Transcription `json:"inputTranscription,omitempty"`
	OutputTranscription *Transcription `json:"outputTranscription,omitempty"`
}

// Transcription is one transcription fragment for a single direction.
type Transcription struct {
	Text string `json:"text,omitempty"`
}

// ToolCall carries one or more function-call requests.
type ToolCall struct {
	FunctionCalls []FunctionCall `json:"functionCalls,omitempty"`
}

// FunctionCall is one function-call request.
type FunctionCall struct {
	ID   string          `json:"id,omitempty"`
	Name string          `json:"name,omitempty"`
	Args json.RawMessage `json:"args,omitempty"`
}

// AudioPayloads returns the base64 audio payloads of a server content frame
// in part order.
func (c *ServerContent) AudioPayloads() []string {
	if c == nil || c.ModelTurn == nil {
		return nil
	}
	var out []string
	for _, part := range c.ModelTurn.Parts {
		if part.InlineData != nil && part.InlineData.Data != "" {
			out = append(out, part.InlineData.Data)
		}
	}
	return out
}
