package taskflow

import (
	"fmt"
	"sync"
	"testing"

	"polyglot-agent/gateway"
)

func TestStoreCreatesOnFirstUse(t *testing.T) {
	store := NewSessionStore()

	s := store.acquire("s1")
	s.state.Messages = append(s.state.Messages, gateway.User("hi"))
	s.release()

	msgs := store.Messages("s1")
	if len(msgs) != 1 || msgs[0].Content != "hi" {
		t.Errorf("unexpected messages: %+v", msgs)
	}
}

func TestStoreUnknownSession(t *testing.T) {
	store := NewSessionStore()
	if msgs := store.Messages("ghost"); msgs != nil {
		t.Errorf("expected nil for unknown session, got %v", msgs)
	}
	if trace := store.Trace("ghost"); trace != nil {
		t.Errorf("expected nil trace, got %v", trace)
	}
}

func TestStoreMessagesReturnsCopy(t *testing.T) {
	store := NewSessionStore()
	s := store.acquire("s1")
	s.state.Messages = append(s.state.Messages, gateway.User("original"))
	s.release()

	msgs := store.Messages("s1")
	msgs[0].Content = "mutated"

	if again := store.Messages("s1"); again[0].Content != "original" {
		t.Error("caller mutation leaked into the store")
	}
}

func TestStoreClear(t *testing.T) {
	store := NewSessionStore()
	s := store.acquire("s1")
	s.state.Messages = append(s.state.Messages, gateway.User("hi"))
	s.release()

	store.Clear("s1")
	if msgs := store.Messages("s1"); msgs != nil {
		t.Errorf("expected session gone after clear, got %v", msgs)
	}
}

func TestStoreConcurrentSessions(t *testing.T) {
	store := NewSessionStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("s%d", n%10)
			s := store.acquire(id)
			s.state.Messages = append(s.state.Messages, gateway.User("msg"))
			s.release()
		}(i)
	}
	wg.Wait()

	total := 0
	for i := 0; i < 10; i++ {
		total += len(store.Messages(fmt.Sprintf("s%d", i)))
	}
	if total != 50 {
		t.Errorf("expected 50 messages across sessions, got %d", total)
	}
}

func TestBeginTurnResetsScratchKeepsHistory(t *testing.T) {
	st := &SessionState{SessionID: "s1"}
	st.beginTurn("first")
	st.Messages = append(st.Messages, gateway.Assistant("reply"))
	st.TaskType = TaskResearch
	st.Plan = []PlanStep{{Name: "x"}}
	st.Analysis = "a"
	st.trace("step one")

	st.beginTurn("second")

	if len(st.Messages) != 3 {
		t.Errorf("expected history preserved plus new user message, got %d", len(st.Messages))
	}
	if st.TaskType != "" || st.Plan != nil || st.Analysis != "" {
		t.Error("per-turn scratch not reset")
	}
	if len(st.ReasoningTrace) != 1 {
		t.Error("reasoning trace must survive across turns")
	}
	if st.CurrentTask != "second" {
		t.Errorf("expected current task updated, got %q", st.CurrentTask)
	}
}
