package audit

import (
	"context"
	"strings"
	"testing"
)

func TestRecord_RejectsUnknownStage(t *testing.T) {
	store := NewStore(nil)

	tests := []string{"", "Input", "INPUT", "both", "response"}
	for _, stage := range tests {
		err := store.Record(context.Background(), &Event{Stage: stage})
		if err == nil {
			t.Errorf("stage %q: expected error", stage)
			continue
		}
		if !strings.Contains(err.Error(), "invalid stage") {
			t.Errorf("stage %q: err = %v", stage, err)
		}
	}
}
