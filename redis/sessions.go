package redis

// Gorilla sessions backed by the external store. Sessions only exist so the
// favourites endpoints can scope a set per visitor; there is no account
// system. Derived from github.com/rbcervilla/redisstore (MIT).

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base32"
	"encoding/gob"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

const (
	sessionSize    = 1024 * 16
	sessionMaxAge  = 86400 * 30
	requestTimeout = 10 * time.Second
)

// SessionStore stores gorilla sessions in the external store.
type SessionStore struct {
	// Client to connect to the store
	Client RedisClient

	Codecs []securecookie.Codec
	// default Options to use when a new session is created
	Options   sessions.Options
	MaxLength int
	// key prefix with which the session will be stored
	keyPrefix string
	// key generator
	keyGen KeyGenFunc
	// session serialiser
	serialiser SessionSerialiser
}

// KeyGenFunc defines a function used by store to generate a key
type KeyGenFunc func() (string, error)

// NewSessionStore returns a new SessionStore on the shared client with
// default configuration.
func NewSessionStore(cfg RedisConfig, client RedisClient, keyPairs ...[]byte) *SessionStore {
	return &SessionStore{
		Codecs: securecookie.CodecsFromPairs(keyPairs...),
		Options: sessions.Options{
			Path:   "/",
			MaxAge: sessionMaxAge,
		},
		Client:     client,
		MaxLength:  sessionSize,
		keyPrefix:  prefix(cfg, "sessions") + namespaceSeparator,
		keyGen:     generateRandomKey,
		serialiser: GobSerialiser{},
	}
}

// Get returns a session for the given name after adding it to the registry.
func (s *SessionStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New returns a session for the given name without adding it to the registry.
func (s *SessionStore) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := s.Options
	session.Options = &opts
	session.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}
	session.ID = c.Value

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	err = s.load(ctx, session)
	if err == nil {
		session.IsNew = false
	} else if errors.Is(err, redis.Nil) {
		err = nil // no data stored
	}
	return session, err
}

// Save adds a single session to the response.
//
// If the Options.MaxAge of the session is <= 0 then the session record will
// be deleted from the store. With this process it enforces proper session
// cookie handling so there is no need to trust the cookie management in the
// web browser.
func (s *SessionStore) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	// Delete if max-age is <= 0
	if session.Options.MaxAge <= 0 {
		if err := s.delete(ctx, session); err != nil {
			return err
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		id, err := s.keyGen()
		if err != nil {
			return errors.New("sessionstore: failed to generate session id")
		}
		session.ID = id
	}

	if err := s.save(ctx, session); err != nil {
		return err
	}

	http.SetCookie(w, sessions.NewCookie(session.Name(), session.ID, session.Options))
	return nil
}

// KeyPrefix sets the key prefix to store sessions under
func (s *SessionStore) KeyPrefix(keyPrefix string) {
	s.keyPrefix = keyPrefix
}

// KeyGen sets the key generator function
func (s *SessionStore) KeyGen(f KeyGenFunc) {
	s.keyGen = f
}

// Serialiser sets the session serialiser to store session
func (s *SessionStore) Serialiser(ss SessionSerialiser) {
	s.serialiser = ss
}

// save writes the session to the store
func (s *SessionStore) save(ctx context.Context, session *sessions.Session) error {

	b, err := s.serialiser.Serialise(session)
	if err != nil {
		return err
	}
	if s.MaxLength != 0 && len(b) > s.MaxLength {
		return errors.New("sessionstore: the value to store is too big")
	}
	span, ctx := startSpan(ctx, "sessions", "Set")
	defer span.Finish()
	return s.Client.Set(ctx, s.keyPrefix+session.ID, b, time.Duration(session.Options.MaxAge)*time.Second).Err()
}

// load reads the session from the store
func (s *SessionStore) load(ctx context.Context, session *sessions.Session) error {

	span, ctx := startSpan(ctx, "sessions", "Get")
	cmd := s.Client.Get(ctx, s.keyPrefix+session.ID)
	span.Finish()

	if cmd.Err() != nil {
		return cmd.Err()
	}

	b, err := cmd.Bytes()
	if err != nil {
		return err
	}

	return s.serialiser.Deserialise(b, session)
}

// delete removes the session from the store
func (s *SessionStore) delete(ctx context.Context, session *sessions.Session) error {
	return s.Client.Del(ctx, s.keyPrefix+session.ID).Err()
}

// SessionSerialiser provides an interface for serialise/deserialise a session
type SessionSerialiser interface {
	Serialise(s *sessions.Session) ([]byte, error)
	Deserialise(b []byte, s *sessions.Session) error
}

// Gob serialiser
type GobSerialiser struct{}

func (gs GobSerialiser) Serialise(s *sessions.Session) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := gob.NewEncoder(buf)
	err := enc.Encode(s.Values)
	if err == nil {
		return buf.Bytes(), nil
	}
	return nil, err
}

func (gs GobSerialiser) Deserialise(d []byte, s *sessions.Session) error {
	dec := gob.NewDecoder(bytes.NewBuffer(d))
	return dec.Decode(&s.Values)
}

// generateRandomKey returns a new random key
func generateRandomKey() (string, error) {
	k := make([]byte, 64)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		return "", err
	}
	return strings.TrimRight(base32.StdEncoding.EncodeToString(k), "="), nil
}
