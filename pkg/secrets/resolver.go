// Package secrets resolves credentials the rider client must not keep in
// plain configuration, such as the API token and the Stripe key.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/richxcame/rider-client/pkg/config"
	"github.com/richxcame/rider-client/pkg/logger"
	"go.uber.org/zap"
)

// ProviderType names a secret store
type ProviderType string

const (
	ProviderNone  ProviderType = ""
	ProviderVault ProviderType = "vault"
	ProviderAWS   ProviderType = "aws"
	ProviderGCP   ProviderType = "gcp"
)

// DefaultCacheTTL applies when SecretsConfig.CacheTTL is unset.
const DefaultCacheTTL = 5 * time.Minute

var (
	ErrProviderNotConfigured = errors.New("secrets: provider not configured")
	ErrInvalidReference      = errors.New("secrets: invalid reference")
	ErrKeyNotFound           = errors.New("secrets: key not found")
)

// Reference locates a secret: [provider://][mount::]path[@version][#key]
type Reference struct {
	Provider ProviderType
	Mount    string
	Path     string
	Version  string
	Key      string
}

// String renders the reference without its key, which is what gets cached.
func (r Reference) String() string {
	var b strings.Builder
	if r.Provider != ProviderNone {
		b.WriteString(string(r.Provider) + "://")
	}
	if r.Mount != "" {
		b.WriteString(r.Mount + "::")
	}
	b.WriteString(r.Path)
	if r.Version != "" {
		b.WriteString("@" + r.Version)
	}
	return b.String()
}

// ParseReference parses a raw reference string.
func ParseReference(raw string) (Reference, error) {
	var ref Reference
	rest := strings.TrimSpace(raw)

	if scheme, after, ok := strings.Cut(rest, "://"); ok && scheme != "" {
		ref.Provider, rest = ProviderType(scheme), after
	}
	if i := strings.LastIndex(rest, "#"); i >= 0 {
		ref.Key, rest = strings.TrimSpace(rest[i+1:]), rest[:i]
	}
	if i := strings.LastIndex(rest, "@"); i >= 0 {
		ref.Version, rest = strings.TrimSpace(rest[i+1:]), rest[:i]
	}
	if mount, after, ok := strings.Cut(rest, "::"); ok {
		ref.Mount, rest = strings.Trim(mount, "/ "), after
	}

	ref.Path = strings.Trim(strings.TrimSpace(rest), "/")
	if ref.Path == "" {
		return ref, ErrInvalidReference
	}
	return ref, nil
}

// Secret is one loaded payload
type Secret struct {
	Data    map[string]string
	Version string
}

// Value picks key from the payload. An empty key selects "value", or the only entry.
func (s Secret) Value(key string) (string, bool) {
	if key != "" {
		v := s.Data[key]
		return v, v != ""
	}
	if v := s.Data["value"]; v != "" {
		return v, true
	}
	if len(s.Data) == 1 {
		for _, v := range s.Data {
			return v, v != ""
		}
	}
	return "", false
}

type cacheEntry struct {
	secret  Secret
	expires time.Time
}

// Resolver turns secret references into values, caching each payload for a TTL.
type Resolver struct {
	backend backend
	ttl     time.Duration
	logger  *zap.Logger
	now     func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewResolver builds a resolver for cfg.Provider. Without a provider it only
// passes literal values through.
func NewResolver(ctx context.Context, cfg config.SecretsConfig, log *zap.Logger) (*Resolver, error) {
	var (
		b   backend
		err error
	)
	switch ProviderType(cfg.Provider) {
	case ProviderNone:
	case ProviderVault:
		b, err = newVaultBackend(cfg)
	case ProviderAWS:
		b, err = newAWSBackend(ctx, cfg)
	case ProviderGCP:
		b, err = newGCPBackend(ctx, cfg)
	default:
		err = fmt.Errorf("secrets: unsupported provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return newResolver(b, cfg.CacheTTL, log), nil
}

func newResolver(b backend, ttl time.Duration, log *zap.Logger) *Resolver {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Resolver{backend: b, ttl: ttl, logger: logger.OrNop(log), now: time.Now, cache: make(map[string]cacheEntry)}
}

// ValueOrRef returns value when set, otherwise resolves ref. Both empty yields "".
func (r *Resolver) ValueOrRef(ctx context.Context, name, value, ref string) (string, error) {
	if value != "" || ref == "" {
		return value, nil
	}
	return r.Resolve(ctx, name, ref)
}

// Resolve loads the value behind raw. name only labels errors and logs.
func (r *Resolver) Resolve(ctx context.Context, name, raw string) (string, error) {
	ref, err := ParseReference(raw)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	if r.backend == nil {
		return "", fmt.Errorf("%s: %w", name, ErrProviderNotConfigured)
	}
	if ref.Provider != ProviderNone && ref.Provider != r.backend.Kind() {
		return "", fmt.Errorf("%s: reference is for %q but %q is configured", name, ref.Provider, r.backend.Kind())
	}

	secret, err := r.load(ctx, ref)
	if err != nil {
		r.logger.Warn("failed to load secret",
			zap.String("secret_name", name),
			zap.String("provider", string(r.backend.Kind())),
			zap.Error(err))
		return "", fmt.Errorf("%s: %w", name, err)
	}

	v, ok := secret.Value(ref.Key)
	if !ok {
		return "", fmt.Errorf("%s: %w: %q", name, ErrKeyNotFound, ref.Key)
	}
	return v, nil
}

// Invalidate drops the cached payload behind raw, e.g. after a credential was rejected.
func (r *Resolver) Invalidate(raw string) {
	ref, err := ParseReference(raw)
	if err != nil {
		return
	}
	r.mu.Lock()
	delete(r.cache, ref.String())
	r.mu.Unlock()
}

// load fetches the whole payload at ref's path; the field is picked by the caller.
func (r *Resolver) load(ctx context.Context, ref Reference) (Secret, error) {
	ref.Key = ""
	key := ref.String()

	r.mu.Lock()
	entry, ok := r.cache[key]
	r.mu.Unlock()
	if ok && r.now().Before(entry.expires) {
		return entry.secret, nil
	}

	secret, err := r.backend.Load(ctx, ref)
	if err != nil {
		return Secret{}, err
	}

	r.mu.Lock()
	r.cache[key] = cacheEntry{secret: secret, expires: r.now().Add(r.ttl)}
	r.mu.Unlock()
	return secret, nil
}

// Close releases the backend client.
func (r *Resolver) Close() error {
	if r.backend == nil {
		return nil
	}
	return r.backend.Close()
}
