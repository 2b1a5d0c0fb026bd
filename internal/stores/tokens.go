package stores

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/LanaDelRey07/Kotatsu/token"
	"github.com/redis/go-redis/v9"
)

const tokenRecordVersion1 = 1

// TokenStore is the Redis-backed [token.Store].
type TokenStore struct {
	redis  redis.UniversalClient
	prefix string
}

func NewTokenStore(redisClient redis.UniversalClient, prefix string) *TokenStore {
	if prefix == "" {
		prefix = "kt"
	}
	return &TokenStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *TokenStore) key(sourceID string) string {
	return s.prefix + ":" + sourceID
}

func (s *TokenStore) Save(ctx context.Context, sourceID string, record token.Record, ttl time.Duration) error {
	encoded, err := encodeTokenRecord(record)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key(sourceID), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", token.ErrBackend, err)
	}
	return nil
}

func (s *TokenStore) Get(ctx context.Context, sourceID string) (token.Record, error) {
	data, err := s.redis.Get(ctx, s.key(sourceID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return token.Record{}, token.ErrNotFound
		}
		return token.Record{}, fmt.Errorf("%w: %v", token.ErrBackend, err)
	}

	return decodeTokenRecord(data)
}

func (s *TokenStore) Delete(ctx context.Context, sourceID string) (bool, error) {
	n, err := s.redis.Del(ctx, s.key(sourceID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", token.ErrBackend, err)
	}
	return n > 0, nil
}

func encodeTokenRecord(record token.Record) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(tokenRecordVersion1)

	var expires int64
	if !record.ExpiresAt.IsZero() {
		expires = record.ExpiresAt.Unix()
	}
	if err := binary.Write(&buf, binary.BigEndian, expires); err != nil {
		return nil, err
	}
	if len(record.AccessToken) > int(^uint16(0)) {
		return nil, errors.New("token record encoding invalid")
	}
	if err := writeString(&buf, record.AccessToken); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func decodeTokenRecord(data []byte) (token.Record, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return token.Record{}, errors.New("token record encoding invalid")
	}
	if version != tokenRecordVersion1 {
		return token.Record{}, fmt.Errorf("token record encoding invalid: unknown version %d", version)
	}

	var expires int64
	if err := binary.Read(reader, binary.BigEndian, &expires); err != nil {
		return token.Record{}, errors.New("token record encoding invalid")
	}
	accessToken, err := readString(reader)
	if err != nil {
		return token.Record{}, errors.New("token record encoding invalid")
	}

	record := token.Record{AccessToken: accessToken}
	if expires > 0 {
		record.ExpiresAt = time.Unix(expires, 0)
	}
	return record, nil
}
