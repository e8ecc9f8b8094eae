package auth

import (
	"context"
	"testing"

	"golang.org/x/oauth2"
)

func TestStaticSession_Token(t *testing.T) {
	s := NewStaticSession("tok-abc")

	if !s.IsAuthenticated() {
		t.Error("Expected session to be authenticated")
	}
	if got := s.AccessToken(context.Background()); got != "tok-abc" {
		t.Errorf("AccessToken = %q, want tok-abc", got)
	}
}

func TestStaticSession_EmptyToken(t *testing.T) {
	s := NewStaticSession("")

	if s.IsAuthenticated() {
		t.Error("Expected empty-token session to be unauthenticated")
	}
	if got := s.AccessToken(context.Background()); got != "" {
		t.Errorf("AccessToken = %q, want empty", got)
	}
}

func TestSession_ClearAuthState(t *testing.T) {
	s := NewStaticSession("tok")
	s.ClearAuthState()

	if s.IsAuthenticated() {
		t.Error("Expected session to be unauthenticated after ClearAuthState")
	}
	if s.TokenSource() != nil {
		t.Error("Expected nil token source after ClearAuthState")
	}
}

func TestSession_SetTokenSource(t *testing.T) {
	s := NewStaticSession("old")
	s.ClearAuthState()
	s.SetTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "new"}))

	if got := s.AccessToken(context.Background()); got != "new" {
		t.Errorf("AccessToken = %q, want new", got)
	}
}

func TestSession_SelectSpreadsheet(t *testing.T) {
	s := NewStaticSession("tok")

	if got := s.SelectedSpreadsheetID(); got != "" {
		t.Errorf("SelectedSpreadsheetID = %q, want empty before selection", got)
	}

	s.SelectSpreadsheet("sheet-1")
	if got := s.SelectedSpreadsheetID(); got != "sheet-1" {
		t.Errorf("SelectedSpreadsheetID = %q, want sheet-1", got)
	}
}
