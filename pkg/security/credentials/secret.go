package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
	"gocloud.dev/secrets"
)

// ErrSecretNotFound is returned when the bucket has no object at Key.
var ErrSecretNotFound = errors.New("secret not found")

// Location addresses an encrypted credentials document.
type Location struct {
	// KeeperURL opens the gocloud secrets keeper, e.g. "base64key://..." or
	// "gcpkms://projects/p/locations/l/keyRings/r/cryptoKeys/k".
	KeeperURL string

	// BucketURL opens the gocloud bucket holding the ciphertext, e.g.
	// "file:///etc/cms/secrets" or "s3://bucket".
	BucketURL string

	Key string
}

func (l Location) validate() error {
	if l.KeeperURL == "" || l.BucketURL == "" || l.Key == "" {
		return errors.New("keeper URL, bucket URL and key are required")
	}
	return nil
}

// secretDocument is the plaintext stored under Location.Key.
type secretDocument struct {
	Credentials *Credentials `json:"credentials"`
	Version     int          `json:"version"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Config tunes SecretProvider caching.
type Config struct {
	// CacheTTL is how long loaded credentials are served without reloading.
	CacheTTL time.Duration

	// RefreshInterval enables background reloading when positive.
	RefreshInterval time.Duration

	Logger *slog.Logger
}

func DefaultConfig() Config {
	return Config{
		CacheTTL:        5 * time.Minute,
		RefreshInterval: 150 * time.Second,
	}
}

// SecretProvider reads credentials encrypted by a secrets keeper from a
// blob bucket and caches them.
type SecretProvider struct {
	loc    Location
	cfg    Config
	keeper *secrets.Keeper
	bucket *blob.Bucket

	mu          sync.RWMutex
	cached      *Credentials
	cacheExpiry time.Time
	closed      bool

	closeOnce   sync.Once
	refreshStop chan struct{}
	refreshDone chan struct{}
}

var _ Provider = (*SecretProvider)(nil)

func NewSecretProvider(ctx context.Context, loc Location) (*SecretProvider, error) {
	return NewSecretProviderWithConfig(ctx, loc, DefaultConfig())
}

// NewSecretProviderWithConfig opens the keeper and bucket and loads the
// credentials once, failing fast when they are missing or invalid.
func NewSecretProviderWithConfig(ctx context.Context, loc Location, cfg Config) (*SecretProvider, error) {
	if err := loc.validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	keeper, bucket, err := open(ctx, loc)
	if err != nil {
		return nil, err
	}

	p := &SecretProvider{
		loc:         loc,
		cfg:         cfg,
		keeper:      keeper,
		bucket:      bucket,
		refreshStop: make(chan struct{}),
		refreshDone: make(chan struct{}),
	}

	if err := p.load(ctx); err != nil {
		_ = keeper.Close()
		_ = bucket.Close()
		return nil, fmt.Errorf("load initial credentials: %w", err)
	}

	if cfg.RefreshInterval > 0 {
		go p.autoRefresh()
	} else {
		close(p.refreshDone)
	}
	return p, nil
}

func open(ctx context.Context, loc Location) (*secrets.Keeper, *blob.Bucket, error) {
	keeper, err := secrets.OpenKeeper(ctx, loc.KeeperURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open secret keeper: %w", err)
	}
	bucket, err := blob.OpenBucket(ctx, loc.BucketURL)
	if err != nil {
		_ = keeper.Close()
		return nil, nil, fmt.Errorf("open secret bucket: %w", err)
	}
	return keeper, bucket, nil
}

// GetCredentials serves cached credentials and reloads once the cache TTL
// has passed.
func (p *SecretProvider) GetCredentials(ctx context.Context) (*Credentials, error) {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return nil, ErrProviderClosed
	}
	creds, fresh := p.cached, time.Now().Before(p.cacheExpiry)
	p.mu.RUnlock()

	if !fresh {
		if err := p.load(ctx); err != nil {
			return nil, err
		}
		p.mu.RLock()
		creds = p.cached
		p.mu.RUnlock()
	}

	if creds.IsExpired() {
		return nil, ErrCredentialsExpired
	}
	return creds, nil
}

func (p *SecretProvider) load(ctx context.Context) error {
	ciphertext, err := p.bucket.ReadAll(ctx, p.loc.Key)
	if gcerrors.Code(err) == gcerrors.NotFound {
		return fmt.Errorf("%w: %s", ErrSecretNotFound, p.loc.Key)
	}
	if err != nil {
		return fmt.Errorf("read secret: %w", err)
	}

	plaintext, err := p.keeper.Decrypt(ctx, ciphertext)
	if err != nil {
		return fmt.Errorf("decrypt secret: %w", err)
	}

	var doc secretDocument
	if err := json.Unmarshal(plaintext, &doc); err != nil {
		return fmt.Errorf("unmarshal secret: %w", err)
	}
	if doc.Credentials == nil {
		return fmt.Errorf("%w: secret holds no credentials", ErrInvalidCredentials)
	}
	if err := doc.Credentials.Validate(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrProviderClosed
	}
	p.cached = doc.Credentials
	p.cacheExpiry = time.Now().Add(p.cfg.CacheTTL)
	return nil
}

// Rotate reloads the document, picking up a rotation done by StoreCredentials
// or by the secret backend.
func (p *SecretProvider) Rotate(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrProviderClosed
	}
	p.cacheExpiry = time.Time{}
	p.mu.Unlock()

	return p.load(ctx)
}

// Close stops background refresh and releases the keeper and bucket.
func (p *SecretProvider) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()

		close(p.refreshStop)
		<-p.refreshDone

		err = errors.Join(p.keeper.Close(), p.bucket.Close())
	})
	return err
}

func (p *SecretProvider) autoRefresh() {
	defer close(p.refreshDone)

	ticker := time.NewTicker(p.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := p.load(ctx); err != nil && !errors.Is(err, ErrProviderClosed) {
				p.cfg.Logger.Warn("credential refresh failed",
					slog.String("key", p.loc.Key),
					slog.Any("error", err))
			}
			cancel()
		case <-p.refreshStop:
			return
		}
	}
}

// StoreCredentials encrypts creds and writes them to loc, replacing any
// previous document. Version increments on every write.
func StoreCredentials(ctx context.Context, loc Location, creds *Credentials) (err error) {
	if err := loc.validate(); err != nil {
		return err
	}
	if err := creds.Validate(); err != nil {
		return err
	}

	keeper, bucket, err := open(ctx, loc)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, keeper.Close(), bucket.Close())
	}()

	version := 1
	if old, err := bucket.ReadAll(ctx, loc.Key); err == nil {
		if plaintext, err := keeper.Decrypt(ctx, old); err == nil {
			var prev secretDocument
			if json.Unmarshal(plaintext, &prev) == nil {
				version = prev.Version + 1
			}
		}
	}

	plaintext, err := json.Marshal(secretDocument{
		Credentials: creds,
		Version:     version,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	ciphertext, err := keeper.Encrypt(ctx, plaintext)
	if err != nil {
		return fmt.Errorf("encrypt credentials: %w", err)
	}
	if err := bucket.WriteAll(ctx, loc.Key, ciphertext, nil); err != nil {
		return fmt.Errorf("write secret: %w", err)
	}
	return nil
}
