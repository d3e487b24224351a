package internal

import (
	"encoding/json"
	"fmt"
	"time"
)

// Store is the persistent cache: IdP login identity, last authentication
// time, profiles and sessions, all serialized as one blob in the
// SecretBackend. Every mutation re-reads and rewrites the whole blob, so
// the blob is the unit of consistency; an interrupted pipeline simply
// leaves the previous state intact.
//
// There is no cross-process locking. Concurrent fedctl runs race on the
// blob and the last writer wins, which is acceptable for a single-operator
// workstation tool.
type Store struct {
	backend SecretBackend

	idpEmail    string
	idpPassword string
	lastAuth    time.Time

	profiles map[string]*Profile
	sessions map[string]*AWSSession
}

// storeBlob is the serialized shape. Optional fields are omitted when
// empty and unknown fields are ignored on decode, so blobs round-trip
// across versions.
type storeBlob struct {
	IdPEmail    string                 `json:"idp_email,omitempty"`
	IdPPassword string                 `json:"idp_password,omitempty"`
	IdPAuthTime *time.Time             `json:"idp_auth_time,omitempty"`
	Profiles    map[string]*Profile    `json:"profiles,omitempty"`
	Sessions    map[string]*AWSSession `json:"sessions,omitempty"`
}

func NewStore(backend SecretBackend) *Store {
	return &Store{backend: backend}
}

// load pulls the blob into memory and lazily purges expired sessions.
// Purging rewrites the blob exactly once, no matter how many sessions
// were dropped.
func (s *Store) load() error {
	data, ok, err := s.backend.Load()
	if err != nil {
		return err
	}

	var blob storeBlob
	if ok {
		if err := json.Unmarshal(data, &blob); err != nil {
			return fmt.Errorf("credential store is corrupt: %w", err)
		}
	}

	s.idpEmail = blob.IdPEmail
	s.idpPassword = blob.IdPPassword
	s.lastAuth = time.Time{}
	if blob.IdPAuthTime != nil {
		s.lastAuth = blob.IdPAuthTime.UTC()
	}

	s.profiles = make(map[string]*Profile, len(blob.Profiles))
	for name, p := range blob.Profiles {
		s.profiles[name] = p
	}

	s.sessions = make(map[string]*AWSSession, len(blob.Sessions))
	purged := false
	for name, sess := range blob.Sessions {
		if sess.Expired() {
			purged = true
			continue
		}
		s.sessions[name] = sess
	}

	if purged {
		return s.save()
	}
	return nil
}

func (s *Store) save() error {
	blob := storeBlob{
		IdPEmail:    s.idpEmail,
		IdPPassword: s.idpPassword,
		Profiles:    s.profiles,
		Sessions:    s.sessions,
	}
	if !s.lastAuth.IsZero() {
		t := s.lastAuth
		blob.IdPAuthTime = &t
	}
	data, err := json.Marshal(blob)
	if err != nil {
		return err
	}
	return s.backend.Save(data)
}

// Login returns the stored IdP identity, empty strings when absent.
func (s *Store) Login() (email, password string, err error) {
	if err := s.load(); err != nil {
		return "", "", err
	}
	return s.idpEmail, s.idpPassword, nil
}

// SetLogin stores the IdP identity for later non-interactive use.
func (s *Store) SetLogin(email, password string) error {
	if err := s.load(); err != nil {
		return err
	}
	s.idpEmail = email
	s.idpPassword = password
	return s.save()
}

// ClearLogin forgets the stored identity, forcing a re-prompt next run.
func (s *Store) ClearLogin() error {
	return s.SetLogin("", "")
}

// AuthTime returns the instant of the last successful IdP login, zero if
// never.
func (s *Store) AuthTime() (time.Time, error) {
	if err := s.load(); err != nil {
		return time.Time{}, err
	}
	return s.lastAuth, nil
}

func (s *Store) SetAuthTime(t time.Time) error {
	if err := s.load(); err != nil {
		return err
	}
	s.lastAuth = t.UTC()
	return s.save()
}

// Profiles returns all stored profiles keyed by name.
func (s *Store) Profiles() (map[string]*Profile, error) {
	if err := s.load(); err != nil {
		return nil, err
	}
	out := make(map[string]*Profile, len(s.profiles))
	for name, p := range s.profiles {
		out[name] = p
	}
	return out, nil
}

// Profile returns the named profile, nil when absent.
func (s *Store) Profile(name string) (*Profile, error) {
	if err := s.load(); err != nil {
		return nil, err
	}
	return s.profiles[name], nil
}

func (s *Store) PutProfile(p *Profile) error {
	if err := s.load(); err != nil {
		return err
	}
	s.profiles[p.Name] = p
	return s.save()
}

// DeleteProfile removes a profile. Removing a missing profile is a no-op.
func (s *Store) DeleteProfile(name string) error {
	if err := s.load(); err != nil {
		return err
	}
	if _, ok := s.profiles[name]; !ok {
		return nil
	}
	delete(s.profiles, name)
	return s.save()
}

// Sessions returns all unexpired sessions keyed by profile name.
func (s *Store) Sessions() (map[string]*AWSSession, error) {
	if err := s.load(); err != nil {
		return nil, err
	}
	out := make(map[string]*AWSSession, len(s.sessions))
	for name, sess := range s.sessions {
		out[name] = sess
	}
	return out, nil
}

// Session returns the session for a profile, nil when absent or expired.
// Expired sessions are never returned.
func (s *Store) Session(profileName string) (*AWSSession, error) {
	if err := s.load(); err != nil {
		return nil, err
	}
	return s.sessions[profileName], nil
}

// PutSession caches a session for a profile, superseding any prior one.
// Storing an already-expired session is a silent no-op.
func (s *Store) PutSession(profileName string, sess *AWSSession) error {
	if sess.Expired() {
		return nil
	}
	if err := s.load(); err != nil {
		return err
	}
	s.sessions[profileName] = sess
	return s.save()
}

// DeleteSession removes a profile's session. Idempotent.
func (s *Store) DeleteSession(profileName string) error {
	if err := s.load(); err != nil {
		return err
	}
	if _, ok := s.sessions[profileName]; !ok {
		return nil
	}
	delete(s.sessions, profileName)
	return s.save()
}

// DeleteAll removes the entire store entry: login identity, profiles and
// sessions.
func (s *Store) DeleteAll() error {
	if err := s.backend.Delete(); err != nil {
		return err
	}
	return s.load()
}
