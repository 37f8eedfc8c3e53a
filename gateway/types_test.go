package gateway

import "testing"

func TestNormalizeRolePassthrough(t *testing.T) {
	for _, role := range []Role{RoleSystem, RoleUser, RoleAssistant, RoleTool} {
		got := NormalizeRole(string(role), nil)
		if got != role {
			t.Errorf("role %q: expected passthrough, got %q", role, got)
		}
	}
}

func TestNormalizeRoleDefaultTable(t *testing.T) {
	if got := NormalizeRole("developer", nil); got != RoleSystem {
		t.Errorf("developer: expected %q, got %q", RoleSystem, got)
	}
	if got := NormalizeRole("function", nil); got != RoleTool {
		t.Errorf("function: expected %q, got %q", RoleTool, got)
	}
}

func TestNormalizeRoleEndpointTableWins(t *testing.T) {
	table := map[string]Role{"developer": RoleUser}
	if got := NormalizeRole("developer", table); got != RoleUser {
		t.Errorf("expected endpoint table to override default, got %q", got)
	}
}

func TestNormalizeRoleUnknownFallsBackToUser(t *testing.T) {
	for _, label := range []string{"", "moderator", "bot", "SYSTEM", "human"} {
		if got := NormalizeRole(label, nil); got != RoleUser {
			t.Errorf("label %q: expected %q, got %q", label, RoleUser, got)
		}
	}
}

func TestNormalizeRoleIdempotent(t *testing.T) {
	table := map[string]Role{"developer": RoleSystem, "weird": RoleAssistant}
	for _, label := range []string{"system", "user", "developer", "weird", "nonsense", ""} {
		once := NormalizeRole(label, table)
		twice := NormalizeRole(string(once), table)
		if once != twice {
			t.Errorf("label %q: not idempotent, %q then %q", label, once, twice)
		}
	}
}

func TestNormalizeMessagesCopies(t *testing.T) {
	in := []Message{{Role: "developer", Content: "be terse"}, User("hi")}
	out := NormalizeMessages(in, nil)

	if out[0].Role != RoleSystem {
		t.Errorf("expected developer remapped to system, got %q", out[0].Role)
	}
	if out[1].Role != RoleUser || out[1].Content != "hi" {
		t.Errorf("user message altered: %+v", out[1])
	}
	if in[0].Role != "developer" {
		t.Error("input slice was mutated")
	}
}

func TestEndpointValidate(t *testing.T) {
	ep := EndpointDescriptor{Vendor: "openai", BaseURL: "https://x", APIKey: "k", ModelID: "m"}
	if err := ep.Validate(); err != nil {
		t.Fatalf("valid endpoint rejected: %v", err)
	}

	noURL := ep
	noURL.BaseURL = ""
	if err := noURL.Validate(); err == nil {
		t.Error("expected error for missing base URL")
	} else if _, ok := err.(*ConfigurationError); !ok {
		t.Errorf("expected *ConfigurationError, got %T", err)
	}

	noKey := ep
	noKey.APIKey = ""
	if err := noKey.Validate(); err == nil {
		t.Error("expected error for missing credential")
	}
}

func TestErrorResponse(t *testing.T) {
	resp := ErrorResponse("boom")
	if !resp.IsError() {
		t.Error("expected IsError true")
	}
	if resp.Content != "boom" {
		t.Errorf("expected content %q, got %q", "boom", resp.Content)
	}

	ok := ChatResponse{Content: "hi", FinishReason: FinishStop}
	if ok.IsError() {
		t.Error("non-degenerate response reported as error")
	}
}
