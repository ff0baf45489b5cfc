package chat

import "testing"

func TestGroupBySession_OrdersBySequence(t *testing.T) {
	turns := []Turn{
		{SessionID: "s1", Role: RoleHuman, Content: "oi", Sequence: 3},
		{SessionID: "s2", Role: RoleAI, Content: "olá", Sequence: 1},
		{SessionID: "s1", Role: RoleAI, Content: "bem-vindo", Sequence: 1},
		{SessionID: "s1", Role: RoleHuman, Content: "quero açaí", Sequence: 2},
	}

	sessions := GroupBySession(turns)

	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	s1 := sessions["s1"]
	if len(s1) != 3 {
		t.Fatalf("expected 3 turns in s1, got %d", len(s1))
	}
	for i, want := range []int64{1, 2, 3} {
		if s1[i].Sequence != want {
			t.Errorf("s1[%d].Sequence = %d, want %d", i, s1[i].Sequence, want)
		}
	}
}

func TestGroupBySession_StableOnTies(t *testing.T) {
	turns := []Turn{
		{SessionID: "s1", Content: "first", Sequence: 1},
		{SessionID: "s1", Content: "second", Sequence: 1},
		{SessionID: "s1", Content: "third", Sequence: 1},
	}

	s1 := GroupBySession(turns)["s1"]
	if s1[0].Content != "first" || s1[1].Content != "second" || s1[2].Content != "third" {
		t.Errorf("tie order not preserved: %q %q %q", s1[0].Content, s1[1].Content, s1[2].Content)
	}
}

func TestGroupBySession_NoTurnsDropped(t *testing.T) {
	turns := []Turn{
		{SessionID: "a", Sequence: 1},
		{SessionID: "b", Sequence: 1},
		{SessionID: "a", Sequence: 2},
	}
	sessions := GroupBySession(turns)
	total := 0
	for _, g := range sessions {
		total += len(g)
	}
	if total != len(turns) {
		t.Errorf("grouped %d turns, want %d", total, len(turns))
	}
}

func TestFindOrderTurn_LastAITurnWithMarker(t *testing.T) {
	turns := []Turn{
		{Role: RoleAI, Content: "valor_total: R$ 10,00", Sequence: 1},
		{Role: RoleHuman, Content: "na verdade quero mais um", Sequence: 2},
		{Role: RoleAI, Content: "valor_total: R$ 25,00", Sequence: 3},
	}

	got, ok := FindOrderTurn(turns)
	if !ok {
		t.Fatal("expected an order turn")
	}
	if got.Sequence != 3 {
		t.Errorf("selected turn sequence = %d, want 3 (last correction wins)", got.Sequence)
	}
}

func TestFindOrderTurn_LegacyMarker(t *testing.T) {
	turns := []Turn{
		{Role: RoleAI, Content: "Valor Total: **R$ 38**", Sequence: 1},
	}
	if _, ok := FindOrderTurn(turns); !ok {
		t.Error("legacy marker not recognized")
	}
}

func TestFindOrderTurn_MarkerCaseInsensitive(t *testing.T) {
	turns := []Turn{
		{Role: RoleAI, Content: "Valor_Total: R$ 12,00", Sequence: 1},
	}
	if _, ok := FindOrderTurn(turns); !ok {
		t.Error("tag marker should match case-insensitively")
	}
}

func TestFindOrderTurn_IgnoresHumanTurns(t *testing.T) {
	turns := []Turn{
		{Role: RoleHuman, Content: "valor_total: R$ 99,00", Sequence: 1},
	}
	if _, ok := FindOrderTurn(turns); ok {
		t.Error("human turn must not be classified as an order")
	}
}

func TestFindOrderTurn_NoMarkerNoOrder(t *testing.T) {
	turns := []Turn{
		{Role: RoleAI, Content: "olá! qual o seu pedido?", Sequence: 1},
		{Role: RoleHuman, Content: "ainda pensando", Sequence: 2},
	}
	if _, ok := FindOrderTurn(turns); ok {
		t.Error("session without total marker must yield no order turn")
	}
}
