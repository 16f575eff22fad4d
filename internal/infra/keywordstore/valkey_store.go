package keywordstore

import (
	"context"
	"fmt"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/pdf-summarizer/internal/domain/history"
)

// ValkeyStore keeps one sorted set of keyword counts per user.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "summarizer"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

func (s *ValkeyStore) Increment(ctx context.Context, userID int64, keywords []string) error {
	if userID <= 0 || len(keywords) == 0 {
		return nil
	}
	key := s.trendKey(userID)
	cmds := make(valkey.Commands, 0, len(keywords))
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		cmds = append(cmds, s.client.B().Zincrby().Key(key).Increment(1).Member(kw).Build())
	}
	for _, resp := range s.client.DoMulti(ctx, cmds...) {
		if err := resp.Error(); err != nil {
			return err
		}
	}
	return nil
}

func (s *ValkeyStore) Top(ctx context.Context, userID int64, limit int) ([]history.KeywordCount, error) {
	if limit <= 0 {
		limit = 10
	}
	resp := s.client.Do(ctx, s.client.B().Zrevrange().Key(s.trendKey(userID)).Start(0).Stop(int64(limit-1)).Withscores().Build())
	arr, err := resp.ToArray()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]history.KeywordCount, 0, len(arr))
	for i := 0; i < len(arr); {
		var (
			member string
			score  float64
		)
		if tuple, tupleErr := arr[i].ToArray(); tupleErr == nil && len(tuple) == 2 {
			// RESP3 returns [member, score] per element
			if member, err = tuple[0].ToString(); err != nil {
				return nil, err
			}
			if score, err = tuple[1].ToFloat64(); err != nil {
				return nil, err
			}
			i++
		} else {
			// RESP2 returns a flat alternating array.
			if i+1 >= len(arr) {
				break
			}
			if member, err = arr[i].ToString(); err != nil {
				return nil, err
			}
			if score, err = arr[i+1].ToFloat64(); err != nil {
				return nil, err
			}
			i += 2
		}
		out = append(out, history.KeywordCount{Keyword: member, Count: score})
	}
	return out, nil
}

func (s *ValkeyStore) Delete(ctx context.Context, userID int64) error {
	return s.client.Do(ctx, s.client.B().Del().Key(s.trendKey(userID)).Build()).Error()
}

func (s *ValkeyStore) trendKey(userID int64) string {
	return fmt.Sprintf("%s:keywords:%d", s.prefix, userID)
}

var _ history.KeywordStore = (*ValkeyStore)(nil)
