package main

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/CyberSecurityUP/GroomSafe/pkg/httputil"
	"github.com/CyberSecurityUP/GroomSafe/pkg/model"
)

func batchConversations(n int) []model.Conversation {
	convs := make([]model.Conversation, n)
	for i := range convs {
		convs[i] = model.Conversation{
			ConversationID: uuid.New(),
			Messages: []model.Message{{
				MessageID:      uuid.New(),
				Timestamp:      time.Now().UTC(),
				SenderRole:     model.RoleAdult,
				AbstractedText: "hello",
			}},
		}
	}
	return convs
}

func TestRunBatch_PreservesOrderAndIsolation(t *testing.T) {
	sem := httputil.NewSemaphore(2)
	convs := batchConversations(3)
	failing := convs[1].ConversationID

	results, err := runBatch(context.Background(), sem, convs, func(_ context.Context, conv *model.Conversation) (*model.RiskAssessment, error) {
		if conv.ConversationID == failing {
			return nil, fmt.Errorf("scoring failed")
		}
		return &model.RiskAssessment{ConversationID: conv.ConversationID}, nil
	})
	if err != nil {
		t.Fatalf("runBatch: %v", err)
	}
	if len(results) != len(convs) {
		t.Fatalf("results = %d items, want %d", len(results), len(convs))
	}

	for i, r := range results {
		if r.ConversationID != convs[i].ConversationID {
			t.Errorf("Result %d out of order: %s", i, r.ConversationID)
		}
	}
	if results[1].Error == "" || results[1].Assessment != nil {
		t.Errorf("Failed item = %+v, want error without assessment", results[1])
	}
	if results[0].Assessment == nil || results[2].Assessment == nil {
		t.Error("Successful items should carry assessments")
	}
}

// A cancelled batch must not return while started assessments are still
// running; their goroutines hold the request context.
func TestRunBatch_WaitsForStartedWorkOnCancel(t *testing.T) {
	sem := httputil.NewSemaphore(1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	release := make(chan struct{})
	assess := func(_ context.Context, conv *model.Conversation) (*model.RiskAssessment, error) {
		close(started)
		<-release
		return &model.RiskAssessment{ConversationID: conv.ConversationID}, nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := runBatch(ctx, sem, batchConversations(2), assess)
		done <- err
	}()

	// First conversation holds the only slot; cancel fails the second
	// Acquire while the first assessment is still in flight
	<-started
	cancel()

	select {
	case <-done:
		t.Fatal("runBatch returned while an assessment was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("runBatch error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("runBatch did not return after started work completed")
	}
}
