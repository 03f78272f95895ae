package session

import (
	"testing"

	"github.com/voxmail-ai/voxmail-core/core/chat"
)

func TestConversationSnapshotIsIndependent(t *testing.T) {
	history := &conversation{}
	history.AppendUser("Any new mail?")
	history.AppendAssistant("You have two unread messages.")

	snapshot := history.Snapshot()
	if len(snapshot) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(snapshot))
	}
	if snapshot[0].Role != chat.RoleUser || snapshot[0].Content != "Any new mail?" {
		t.Errorf("unexpected first turn: %+v", snapshot[0])
	}
	if snapshot[1].Role != chat.RoleAssistant {
		t.Errorf("unexpected second turn role: %q", snapshot[1].Role)
	}

	snapshot[0].Content = "mutated"
	if fresh := history.Snapshot(); fresh[0].Content != "Any new mail?" {
		t.Fatalf("expected snapshot mutation not to affect history, got %q", fresh[0].Content)
	}
}
