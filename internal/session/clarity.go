package session

import (
	"encoding/json"
	"fmt"

	"github.com/mahakjain123456/feynman-mirror/internal/live"
)

// ToolInvocation is one decoded clarity-update request.
type ToolInvocation struct {
	ID        string
	Score     float64
	Reasoning string
	Language  string
}

// ClarityState is the latest clarity feedback shown to the user. Each
// invocation overwrites it wholesale.
type ClarityState struct {
	Score     float64
	Reasoning string
	Language  string
}

type clarityArgs struct {
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning"`
	Language  string  `json:"language"`
}

// parseInvocation decodes the arguments of a clarity-update function call.
func parseInvocation(fc live.FunctionCall) (ToolInvocation, error) {
	var args clarityArgs
	if err := json.Unmarshal(fc.Args, &args); err != nil {
		return ToolInvocation{}, fmt.Errorf("failed to decode %s args: %w", fc.Name, err)
	}

	if args.Score < 0 || args.Score > 100 {
		return ToolInvocation{}, fmt.Errorf("clarity score %v out of range", args.Score)
	}

	return ToolInvocation{
		ID:        fc.ID,
		Score:     args.Score,
		Reasoning: args.Reasoning,
		Language:  args.Language,
	}, nil
}
