package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	pkgerrors "github.com/yungbote/neurobridge-frameworks/internal/pkg/errors"
	"github.com/yungbote/neurobridge-frameworks/internal/platform/logger"
)

// ImportLock serialises imports that target the same framework idnumber.
type ImportLock interface {
	// Acquire returns errors.ErrImportInProgress when another holder owns key.
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error)
	Close() error
}

type Lease interface {
	Release(ctx context.Context) error
}

const defaultLockPrefix = "frameworks:import:"

// Deletes the key only while it still holds our token.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisImportLock struct {
	log    *logger.Logger
	rdb    goredis.UniversalClient
	prefix string
	owned  bool
}

// NewImportLock connects to REDIS_ADDR. Without it a process-local lock is returned,
// which is enough for a single server or CLI process.
func NewImportLock(log *logger.Logger) (ImportLock, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		log.Warn("REDIS_ADDR not set; import lock is process-local")
		return NewLocalImportLock(), nil
	}
	prefix := strings.TrimSpace(os.Getenv("REDIS_IMPORT_LOCK_PREFIX"))
	if prefix == "" {
		prefix = defaultLockPrefix
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	l := NewImportLockWithClient(rdb, prefix, log).(*redisImportLock)
	l.owned = true
	return l, nil
}

func NewImportLockWithClient(rdb goredis.UniversalClient, prefix string, log *logger.Logger) ImportLock {
	if log == nil {
		log = logger.Nop()
	}
	if prefix == "" {
		prefix = defaultLockPrefix
	}
	return &redisImportLock{
		log:    log.With("service", "RedisImportLock"),
		rdb:    rdb,
		prefix: prefix,
	}
}

func (l *redisImportLock) Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error) {
	if l == nil || l.rdb == nil {
		return nil, fmt.Errorf("redis import lock not initialized")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("%w: lock key required", pkgerrors.ErrInvalidArgument)
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	full := l.prefix + key
	ok, err := l.rdb.SetNX(ctx, full, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis setnx: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", pkgerrors.ErrImportInProgress, key)
	}
	return &redisLease{lock: l, key: full, token: token}, nil
}

func (l *redisImportLock) Close() error {
	if l == nil || l.rdb == nil || !l.owned {
		return nil
	}
	return l.rdb.Close()
}

type redisLease struct {
	lock  *redisImportLock
	key   string
	token string
}

func (r *redisLease) Release(ctx context.Context) error {
	if r == nil || r.lock == nil {
		return nil
	}
	n, err := releaseScript.Run(ctx, r.lock.rdb, []string{r.key}, r.token).Int()
	if err != nil {
		return fmt.Errorf("redis release: %w", err)
	}
	if n == 0 {
		r.lock.log.Warn("import lock expired before release", "key", r.key)
	}
	return nil
}

func newToken() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}

type localImportLock struct {
	mu   sync.Mutex
	held map[string]time.Time
}

func NewLocalImportLock() ImportLock {
	return &localImportLock{held: map[string]time.Time{}}
}

func (l *localImportLock) Acquire(_ context.Context, key string, ttl time.Duration) (Lease, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("%w: lock key required", pkgerrors.ErrInvalidArgument)
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	if exp, ok := l.held[key]; ok && now.Before(exp) {
		return nil, fmt.Errorf("%w: %s", pkgerrors.ErrImportInProgress, key)
	}
	exp := now.Add(ttl)
	l.held[key] = exp
	return &localLease{lock: l, key: key, exp: exp}, nil
}

func (l *localImportLock) Close() error { return nil }

type localLease struct {
	lock *localImportLock
	key  string
	exp  time.Time
}

func (r *localLease) Release(context.Context) error {
	r.lock.mu.Lock()
	defer r.lock.mu.Unlock()
	// A lease that expired may already belong to someone else.
	if cur, ok := r.lock.held[r.key]; ok && cur.Equal(r.exp) {
		delete(r.lock.held, r.key)
	}
	return nil
}
