package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/storefront/internal/model"
	"github.com/redis/go-redis/v9"
)

const (
	productListCacheKey = "storefront:products:all"
	productCacheKeyFmt  = "storefront:product:%d"
)

// ErrCacheMiss はキャッシュにキーが存在しないことを表す。
var ErrCacheMiss = errors.New("cache miss")

// CacheStore はカタログキャッシュが必要とするKVストアのインターフェース。
type CacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// RedisCacheStore はgo-redisクライアントをCacheStoreとして使うアダプタ。
type RedisCacheStore struct {
	client *redis.Client
}

// NewRedisCacheStore はredis URL（例: "redis://localhost:6379/0"）からRedisCacheStoreを生成する。
func NewRedisCacheStore(redisURL string) (*RedisCacheStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	return &RedisCacheStore{client: redis.NewClient(opts)}, nil
}

// Ping はRedisへの疎通を確認する。
func (s *RedisCacheStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close はRedis接続を閉じる。
func (s *RedisCacheStore) Close() error {
	return s.client.Close()
}

// Get はキーの値を取得する。キーが存在しない場合はErrCacheMissを返す。
func (s *RedisCacheStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	return v, err
}

// Set はキーに値をTTL付きで保存する。
func (s *RedisCacheStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// Del はキーを削除する。
func (s *RedisCacheStore) Del(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

// CachedProductRepo はProductRepositoryの読み取りをキャッシュするデコレータ。
// キャッシュ障害時はログを残してDBにフォールバックする。
// 商品IDが存在しない結果はキャッシュしない。
type CachedProductRepo struct {
	next  ProductRepository
	cache CacheStore
	ttl   time.Duration
}

// NewCachedProductRepo はCachedProductRepoを生成する。
func NewCachedProductRepo(next ProductRepository, cache CacheStore, ttl time.Duration) *CachedProductRepo {
	return &CachedProductRepo{next: next, cache: cache, ttl: ttl}
}

// List は全商品を返す。キャッシュヒット時はDBにアクセスしない。
func (r *CachedProductRepo) List(ctx context.Context) ([]*model.Product, error) {
	var products []*model.Product
	if r.load(ctx, productListCacheKey, &products) {
		return products, nil
	}

	products, err := r.next.List(ctx)
	if err != nil {
		return nil, err
	}

	r.store(ctx, productListCacheKey, products)
	return products, nil
}

// FindByID は指定IDの商品を返す。見つからない場合はnilを返す。
// キャッシュ済みの商品はDBから削除されてもTTLが切れるまで返り続ける。
func (r *CachedProductRepo) FindByID(ctx context.Context, id int64) (*model.Product, error) {
	key := fmt.Sprintf(productCacheKeyFmt, id)

	var cached model.Product
	if r.load(ctx, key, &cached) {
		return &cached, nil
	}

	p, err := r.next.FindByID(ctx, id)
	if err != nil || p == nil {
		return p, err
	}

	r.store(ctx, key, p)
	return p, nil
}

// Count はキャッシュを経由せずに商品数を返す。
func (r *CachedProductRepo) Count(ctx context.Context) (int, error) {
	return r.next.Count(ctx)
}

// CreateBatch は商品を作成し、一覧キャッシュを無効化する。
func (r *CachedProductRepo) CreateBatch(ctx context.Context, products []*model.Product) error {
	if err := r.next.CreateBatch(ctx, products); err != nil {
		return err
	}

	keys := []string{productListCacheKey}
	for _, p := range products {
		keys = append(keys, fmt.Sprintf(productCacheKeyFmt, p.ID))
	}
	if err := r.cache.Del(ctx, keys...); err != nil {
		slog.Warn("failed to invalidate product cache", slog.String("error", err.Error()))
	}

	return nil
}

// load はキャッシュからJSONを読み込む。ヒットした場合はtrueを返す。
func (r *CachedProductRepo) load(ctx context.Context, key string, dst any) bool {
	raw, err := r.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			slog.Warn("product cache read failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
		return false
	}

	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		slog.Warn("product cache entry is corrupt",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return false
	}
	return true
}

// store は値をJSONにしてキャッシュへ書き込む。失敗はログのみ。
func (r *CachedProductRepo) store(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, key, string(data), r.ttl); err != nil {
		slog.Warn("product cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

// compile-time interface checks
var (
	_ ProductRepository = (*CachedProductRepo)(nil)
	_ CacheStore        = (*RedisCacheStore)(nil)
)
