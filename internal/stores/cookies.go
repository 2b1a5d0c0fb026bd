package stores

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cookieRecordVersion1 = 1

	cookieFlagSecure   = 1 << 0
	cookieFlagHTTPOnly = 1 << 1
)

var (
	ErrCookiesNotFound = errors.New("cookies not found")
	ErrCookieBackend   = errors.New("cookie backend unavailable")
	ErrCookieEncoding  = errors.New("cookie record encoding invalid")
)

// CookieRecord is one persisted cookie. Expires is a Unix timestamp, zero for
// session cookies.
type CookieRecord struct {
	Name     string
	Value    string
	Domain   string
	Path     string
	Expires  int64
	Secure   bool
	HTTPOnly bool
}

// CookieStore persists the full cookie set of one domain under a single key.
type CookieStore struct {
	redis  redis.UniversalClient
	prefix string
}

func NewCookieStore(redisClient redis.UniversalClient, prefix string) *CookieStore {
	if prefix == "" {
		prefix = "kc"
	}
	return &CookieStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *CookieStore) key(domain string) string {
	return s.prefix + ":" + domain
}

// Save replaces the stored cookie set for a domain. An empty set deletes the
// key.
func (s *CookieStore) Save(ctx context.Context, domain string, records []CookieRecord, ttl time.Duration) error {
	if len(records) == 0 {
		_, err := s.Delete(ctx, domain)
		return err
	}

	encoded, err := encodeCookieRecords(records)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key(domain), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCookieBackend, err)
	}
	return nil
}

func (s *CookieStore) Get(ctx context.Context, domain string) ([]CookieRecord, error) {
	data, err := s.redis.Get(ctx, s.key(domain)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCookiesNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrCookieBackend, err)
	}

	return decodeCookieRecords(data)
}

func (s *CookieStore) Delete(ctx context.Context, domain string) (bool, error) {
	n, err := s.redis.Del(ctx, s.key(domain)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrCookieBackend, err)
	}
	return n > 0, nil
}

// Domains lists every domain with a persisted cookie set.
func (s *CookieStore) Domains(ctx context.Context) ([]string, error) {
	var (
		domains []string
		cursor  uint64
	)
	match := s.prefix + ":*"
	strip := len(s.prefix) + 1

	for {
		keys, next, err := s.redis.Scan(ctx, cursor, match, 64).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCookieBackend, err)
		}
		for _, key := range keys {
			if len(key) > strip {
				domains = append(domains, key[strip:])
			}
		}
		if next == 0 {
			return domains, nil
		}
		cursor = next
	}
}

func encodeCookieRecords(records []CookieRecord) ([]byte, error) {
	if len(records) > int(^uint16(0)) {
		return nil, ErrCookieEncoding
	}

	var buf bytes.Buffer
	buf.WriteByte(cookieRecordVersion1)
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(records))); err != nil {
		return nil, err
	}

	for _, record := range records {
		for _, field := range []string{record.Name, record.Value, record.Domain, record.Path} {
			if err := writeString(&buf, field); err != nil {
				return nil, err
			}
		}
		if err := binary.Write(&buf, binary.BigEndian, record.Expires); err != nil {
			return nil, err
		}
		var flags byte
		if record.Secure {
			flags |= cookieFlagSecure
		}
		if record.HTTPOnly {
			flags |= cookieFlagHTTPOnly
		}
		buf.WriteByte(flags)
	}

	return buf.Bytes(), nil
}

func decodeCookieRecords(data []byte) ([]CookieRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, ErrCookieEncoding
	}
	if version != cookieRecordVersion1 {
		return nil, fmt.Errorf("%w: unknown version %d", ErrCookieEncoding, version)
	}

	var count uint16
	if err := binary.Read(reader, binary.BigEndian, &count); err != nil {
		return nil, ErrCookieEncoding
	}

	records := make([]CookieRecord, 0, count)
	for i := 0; i < int(count); i++ {
		var record CookieRecord
		for _, field := range []*string{&record.Name, &record.Value, &record.Domain, &record.Path} {
			value, err := readString(reader)
			if err != nil {
				return nil, ErrCookieEncoding
			}
			*field = value
		}
		if err := binary.Read(reader, binary.BigEndian, &record.Expires); err != nil {
			return nil, ErrCookieEncoding
		}
		flags, err := reader.ReadByte()
		if err != nil {
			return nil, ErrCookieEncoding
		}
		record.Secure = flags&cookieFlagSecure != 0
		record.HTTPOnly = flags&cookieFlagHTTPOnly != 0
		records = append(records, record)
	}

	if reader.Len() != 0 {
		return nil, fmt.Errorf("%w: trailing bytes", ErrCookieEncoding)
	}
	return records, nil
}

func writeString(buf *bytes.Buffer, value string) error {
	if len(value) > int(^uint16(0)) {
		return ErrCookieEncoding
	}
	if err := binary.Write(buf, binary.BigEndian, uint16(len(value))); err != nil {
		return err
	}
	_, err := buf.WriteString(value)
	return err
}

func readString(reader *bytes.Reader) (string, error) {
	var length uint16
	if err := binary.Read(reader, binary.BigEndian, &length); err != nil {
		return "", err
	}
	if int(length) > reader.Len() {
		return "", io.ErrUnexpectedEOF
	}
	raw := make([]byte, length)
	if _, err := io.ReadFull(reader, raw); err != nil {
		return "", err
	}
	return string(raw), nil
}
