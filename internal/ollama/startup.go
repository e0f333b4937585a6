package ollama

import (
	"context"
	"fmt"
	"io"
)

// CheckModels reports to w whether each local model the registry names is
// available. Missing models are not pulled; the report tells the operator
// which command to run. It returns an error only if Ollama is unreachable.
func CheckModels(ctx context.Context, c *Client, models []string, w io.Writer) error {
	if len(models) == 0 {
		return nil
	}
	if !c.IsRunning(ctx) {
		return fmt.Errorf("Ollama is not running. Start it with: ollama serve")
	}

	for _, model := range models {
		if c.HasModel(ctx, model) {
			fmt.Fprintf(w, "model %s: ready\n", model)
			continue
		}
		fmt.Fprintf(w, "model %s: missing (run: ollama pull %s)\n", model, model)
	}
	return nil
}
