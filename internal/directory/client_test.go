package directory

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Rainier-MSFT/ID360Model/internal/core"
)

func delegatedCred() core.Credential {
	return core.Credential{
		Kind:  core.CredentialDelegatedDirect,
		Token: "bearer-token",
	}
}

func TestClient_Lookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer bearer-token" {
			t.Errorf("Authorization = %q, want Bearer bearer-token", got)
		}
		if !strings.HasPrefix(r.URL.Path, "/v1.0/users/") {
			t.Errorf("path = %q, want /v1.0/users/ prefix", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "u-123",
			"displayName": "Jo Doe",
			"userPrincipalName": "jo@contoso.com",
			"mail": "jo@contoso.com",
			"jobTitle": "Engineer"
		}`))
	}))
	defer server.Close()

	client := New(server.URL, 5*time.Second)
	profile, err := client.Lookup(context.Background(), delegatedCred(), "jo@contoso.com")
	if err != nil {
		t.Fatalf("Lookup() unexpected error: %v", err)
	}
	if profile.ID != "u-123" {
		t.Errorf("ID = %q, want u-123", profile.ID)
	}
	if profile.DisplayName != "Jo Doe" {
		t.Errorf("DisplayName = %q, want Jo Doe", profile.DisplayName)
	}
	if profile.UserPrincipalName != "jo@contoso.com" {
		t.Errorf("UserPrincipalName = %q, want jo@contoso.com", profile.UserPrincipalName)
	}
}

func TestClient_Lookup_ErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"Request_ResourceNotFound","message":"user does not exist"}}`))
	}))
	defer server.Close()

	client := New(server.URL, 5*time.Second)
	_, err := client.Lookup(context.Background(), delegatedCred(), "missing@contoso.com")

	var dirErr *core.DirectoryError
	if !errors.As(err, &dirErr) {
		t.Fatalf("Lookup() error = %T, want *core.DirectoryError", err)
	}
	if dirErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", dirErr.StatusCode)
	}
	if dirErr.Code != "Request_ResourceNotFound" {
		t.Errorf("Code = %q, want Request_ResourceNotFound", dirErr.Code)
	}
	if dirErr.Message != "user does not exist" {
		t.Errorf("Message = %q, want the upstream message", dirErr.Message)
	}
}

func TestClient_Lookup_ErrorWithoutEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(server.URL, 5*time.Second)
	_, err := client.Lookup(context.Background(), delegatedCred(), "jo")

	var dirErr *core.DirectoryError
	if !errors.As(err, &dirErr) {
		t.Fatalf("Lookup() error = %T, want *core.DirectoryError", err)
	}
	if dirErr.StatusCode != http.StatusBadGateway {
		t.Errorf("StatusCode = %d, want 502", dirErr.StatusCode)
	}
	if dirErr.Message == "" {
		t.Error("Message is empty, want a synthesized status message")
	}
}

func TestClient_Lookup_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	client := New(server.URL, time.Second)
	_, err := client.Lookup(context.Background(), delegatedCred(), "jo")

	var dirErr *core.DirectoryError
	if !errors.As(err, &dirErr) {
		t.Fatalf("Lookup() error = %T, want *core.DirectoryError", err)
	}
	if dirErr.StatusCode != http.StatusBadGateway {
		t.Errorf("StatusCode = %d, want 502 for transport failures", dirErr.StatusCode)
	}
}

func TestClient_Lookup_UnusableCredential(t *testing.T) {
	client := New("http://unused", time.Second)
	_, err := client.Lookup(context.Background(), core.Credential{Kind: core.CredentialNone}, "jo")
	if !errors.Is(err, core.ErrNoCredential) {
		t.Errorf("Lookup() error = %v, want ErrNoCredential", err)
	}
}
