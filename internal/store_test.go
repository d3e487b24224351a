package internal

import (
	"encoding/json"
	"testing"
	"time"
)

// memoryBackend is an in-memory SecretBackend that counts operations so
// tests can assert on rewrite behavior.
type memoryBackend struct {
	data    []byte
	present bool
	saves   int
	deletes int
}

func (m *memoryBackend) Load() ([]byte, bool, error) {
	if !m.present {
		return nil, false, nil
	}
	return m.data, true, nil
}

func (m *memoryBackend) Save(data []byte) error {
	m.data = append([]byte(nil), data...)
	m.present = true
	m.saves++
	return nil
}

func (m *memoryBackend) Delete() error {
	m.data = nil
	m.present = false
	m.deletes++
	return nil
}

func validSession(d time.Duration) *AWSSession {
	return &AWSSession{
		AccessKeyID:     "AKIATEST1234",
		SecretAccessKey: "SecretKey1234",
		SessionToken:    "Token1234",
		ExpiresAt:       time.Now().UTC().Add(d),
	}
}

func TestPutThenGetSession(t *testing.T) {
	store := NewStore(&memoryBackend{})
	sess := validSession(time.Hour)

	if err := store.PutSession("dev", sess); err != nil {
		t.Fatalf("PutSession failed: %v", err)
	}

	got, err := store.Session("dev")
	if err != nil {
		t.Fatalf("Session failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected a session, got nil")
	}
	if got.AccessKeyID != sess.AccessKeyID || !got.ExpiresAt.Equal(sess.ExpiresAt) {
		t.Errorf("Session mismatch. Got %+v, want %+v", got, sess)
	}
}

func TestPutExpiredSessionIsNoOp(t *testing.T) {
	backend := &memoryBackend{}
	store := NewStore(backend)

	if err := store.PutSession("dev", validSession(-time.Minute)); err != nil {
		t.Fatalf("PutSession failed: %v", err)
	}
	if backend.saves != 0 {
		t.Errorf("Expected no writes for an expired session, got %d", backend.saves)
	}

	got, err := store.Session("dev")
	if err != nil {
		t.Fatalf("Session failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected absence, got %+v", got)
	}
}

func TestGetNeverReturnsExpiredSession(t *testing.T) {
	backend := &memoryBackend{}
	store := NewStore(backend)

	sess := validSession(50 * time.Millisecond)
	if err := store.PutSession("dev", sess); err != nil {
		t.Fatalf("PutSession failed: %v", err)
	}

	time.Sleep(60 * time.Millisecond)

	got, err := store.Session("dev")
	if err != nil {
		t.Fatalf("Session failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expired session was returned: %+v", got)
	}
}

func TestLoadPurgesExpiredWithSingleRewrite(t *testing.T) {
	blob := storeBlob{
		Sessions: map[string]*AWSSession{
			"stale1": validSession(-time.Hour),
			"stale2": validSession(-time.Minute),
			"fresh":  validSession(time.Hour),
		},
	}
	data, err := json.Marshal(blob)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	backend := &memoryBackend{data: data, present: true}
	store := NewStore(backend)

	sessions, err := store.Sessions()
	if err != nil {
		t.Fatalf("Sessions failed: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("Expected exactly the fresh session, got %d", len(sessions))
	}
	if _, ok := sessions["fresh"]; !ok {
		t.Error("Fresh session missing after purge")
	}
	if backend.saves != 1 {
		t.Errorf("Expected exactly one rewrite during purge, got %d", backend.saves)
	}

	// The persisted blob must no longer contain the stale entries.
	var persisted storeBlob
	if err := json.Unmarshal(backend.data, &persisted); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(persisted.Sessions) != 1 {
		t.Errorf("Persisted blob still has %d sessions", len(persisted.Sessions))
	}
}

func TestPutSessionSupersedesPrior(t *testing.T) {
	store := NewStore(&memoryBackend{})

	first := validSession(time.Hour)
	second := validSession(2 * time.Hour)
	second.AccessKeyID = "AKIASECOND"

	if err := store.PutSession("dev", first); err != nil {
		t.Fatalf("PutSession failed: %v", err)
	}
	if err := store.PutSession("dev", second); err != nil {
		t.Fatalf("PutSession failed: %v", err)
	}

	got, err := store.Session("dev")
	if err != nil {
		t.Fatalf("Session failed: %v", err)
	}
	if got.AccessKeyID != "AKIASECOND" {
		t.Errorf("Expected the newer session, got %s", got.AccessKeyID)
	}
}

func TestDeleteSessionIdempotent(t *testing.T) {
	store := NewStore(&memoryBackend{})

	if err := store.DeleteSession("missing"); err != nil {
		t.Errorf("Deleting a missing session should not error: %v", err)
	}

	if err := store.PutSession("dev", validSession(time.Hour)); err != nil {
		t.Fatalf("PutSession failed: %v", err)
	}
	if err := store.DeleteSession("dev"); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if err := store.DeleteSession("dev"); err != nil {
		t.Errorf("Second delete should be a no-op: %v", err)
	}
}

func TestDeleteAllEmptiesStore(t *testing.T) {
	store := NewStore(&memoryBackend{})

	if err := store.SetLogin("me@example.com", "hunter2"); err != nil {
		t.Fatalf("SetLogin failed: %v", err)
	}
	if err := store.PutProfile(&Profile{Name: "dev", SSOURL: "https://sso.jumpcloud.com/saml2/dev"}); err != nil {
		t.Fatalf("PutProfile failed: %v", err)
	}
	if err := store.PutSession("dev", validSession(time.Hour)); err != nil {
		t.Fatalf("PutSession failed: %v", err)
	}

	if err := store.DeleteAll(); err != nil {
		t.Fatalf("DeleteAll failed: %v", err)
	}

	profiles, err := store.Profiles()
	if err != nil {
		t.Fatalf("Profiles failed: %v", err)
	}
	sessions, err := store.Sessions()
	if err != nil {
		t.Fatalf("Sessions failed: %v", err)
	}
	email, password, err := store.Login()
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if len(profiles) != 0 || len(sessions) != 0 || email != "" || password != "" {
		t.Error("Store not empty after DeleteAll")
	}
}

func TestProfileRoundTrip(t *testing.T) {
	store := NewStore(&memoryBackend{})

	profile := &Profile{
		Name:         "prod",
		SSOURL:       "https://sso.jumpcloud.com/saml2/prod",
		AWSAccountID: "123456789012",
		AWSRole:      "Admin",
		ChainedRole:  &ChainedRole{RoleName: "Audit", ExternalID: "ext"},
	}
	if err := store.PutProfile(profile); err != nil {
		t.Fatalf("PutProfile failed: %v", err)
	}

	got, err := store.Profile("prod")
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	if got == nil || got.AWSAccountID != "123456789012" || got.ChainedRole == nil || got.ChainedRole.RoleName != "Audit" {
		t.Errorf("Profile round-trip mismatch: %+v", got)
	}

	if err := store.DeleteProfile("prod"); err != nil {
		t.Fatalf("DeleteProfile failed: %v", err)
	}
	got, err = store.Profile("prod")
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	if got != nil {
		t.Error("Profile still present after delete")
	}
}

func TestUnknownBlobFieldsIgnored(t *testing.T) {
	raw := []byte(`{"idp_email":"me@example.com","future_field":{"a":1},"sessions":{}}`)
	backend := &memoryBackend{data: raw, present: true}
	store := NewStore(backend)

	email, _, err := store.Login()
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if email != "me@example.com" {
		t.Errorf("Email mismatch: %s", email)
	}
}

func TestAuthTimeRoundTrip(t *testing.T) {
	store := NewStore(&memoryBackend{})

	got, err := store.AuthTime()
	if err != nil {
		t.Fatalf("AuthTime failed: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("Expected zero auth time, got %v", got)
	}

	now := time.Now().UTC().Truncate(time.Second)
	if err := store.SetAuthTime(now); err != nil {
		t.Fatalf("SetAuthTime failed: %v", err)
	}
	got, err = store.AuthTime()
	if err != nil {
		t.Fatalf("AuthTime failed: %v", err)
	}
	if !got.Equal(now) {
		t.Errorf("AuthTime mismatch. Got %v, want %v", got, now)
	}
}
