package session

import (
	"github.com/mahakjain123456/feynman-mirror/internal/config"
	"github.com/mahakjain123456/feynman-mirror/internal/live"
)

// ToolUpdateClarity is the single tool the session advertises. The model
// calls it to report how clearly the user is explaining their topic.
const ToolUpdateClarity = "updateClarity"

const systemPrompt = "You are a curious student being taught by the user. " +
	"The user is explaining a topic to you to test their own understanding. " +
	"Listen carefully, ask short clarifying questions when something is vague, " +
	"and admit confusion when an explanation does not hold together. " +
	"Always respond in the same language the user is speaking; if they switch " +
	"languages, switch with them. " +
	"If the video shows the user reading from notes or a screen rather than " +
	"explaining freely, gently point it out and ask them to explain in their " +
	"own words. " +
	"After each user explanation, call " + ToolUpdateClarity + " with your " +
	"current clarity score (0-100), a one-sentence reasoning, and the language " +
	"the user is speaking."

func clarityTool() live.Tool {
	minScore, maxScore := 0.0, 100.0

	return live.Tool{
		FunctionDeclarations: []live.FunctionDeclaration{{
			Name:        ToolUpdateClarity,
			Description: "Report the current clarity of the user's explanation.",
			Parameters: &live.Schema{
				Type: "object",
				Properties: map[string]*live.Schema{
					"score": {
						Type:        "number",
						Description: "Clarity score from 0 (incoherent) to 100 (crystal clear).",
						Minimum:     &minScore,
						Maximum:     &maxScore,
					},
					"reasoning": {
						Type:        "string",
						Description: "One sentence explaining the score.",
					},
					"language": {
						Type:        "string",
						Description: "Language the user is currently speaking.",
					},
				},
				Required: []string{"score", "reasoning", "language"},
			},
		}},
	}
}

// buildSetup assembles the session configuration frame: audio output with the
// configured voice, transcription on both directions and the clarity tool.
func buildSetup(cfg *config.Config) *live.Setup {
	return &live.Setup{
		Model: cfg.Gemini.Model,
		SystemInstruction: &live.Content{
			Parts: []live.Part{{Text: systemPrompt}},
		},
		GenerationConfig: &live.GenerationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &live.SpeechConfig{
				VoiceConfig: &live.VoiceConfig{
					PrebuiltVoiceConfig: &live.PrebuiltVoiceConfig{VoiceName: cfg.Gemini.Voice},
				},
			},
		},
		Tools:                    []live.Tool{clarityTool()},
		InputAudioTranscription:  &live.AudioTranscriptionConfig{},
		OutputAudioTranscription: &live.AudioTranscriptionConfig{},
	}
}
