package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/onurcolak/checkin-dispatch-service/environments"
	"github.com/onurcolak/checkin-dispatch-service/internal/domain"
	"github.com/onurcolak/checkin-dispatch-service/pkg/logger"
)

// Client stores the dispatch history as one hash: field = dispatch id,
// value = JSON-encoded DispatchStatus.
type Client struct {
	client valkey.Client
	key    string
}

func NewRedisClient(cfg environments.RedisConfig) (*Client, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)},
		Password:    cfg.Password,
		SelectDB:    cfg.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Valkey client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Infof("Connected to Redis (via Valkey client), history key %q", cfg.Key)

	return &Client{client: client, key: cfg.Key}, nil
}

func (c *Client) LoadHistory(ctx context.Context) (domain.DispatchHistory, error) {
	fields, err := c.client.Do(ctx, c.client.B().Hgetall().Key(c.key).Build()).AsStrMap()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return domain.DispatchHistory{}, nil
		}
		return nil, fmt.Errorf("failed to read dispatch history: %w", err)
	}

	return decodeHistory(fields), nil
}

// SaveHistory replaces the hash atomically (MULTI/DEL/HSET/EXEC).
func (c *Client) SaveHistory(ctx context.Context, history domain.DispatchHistory) error {
	fields, err := encodeHistory(history)
	if err != nil {
		return err
	}

	cmds := make(valkey.Commands, 0, 4)
	cmds = append(cmds,
		c.client.B().Multi().Build(),
		c.client.B().Del().Key(c.key).Build(),
	)

	if len(fields) > 0 {
		hset := c.client.B().Hset().Key(c.key).FieldValue()
		for _, f := range fields {
			hset = hset.FieldValue(f.id, f.value)
		}
		cmds = append(cmds, hset.Build())
	}

	cmds = append(cmds, c.client.B().Exec().Build())

	for _, result := range c.client.DoMulti(ctx, cmds...) {
		if err := result.Error(); err != nil {
			return fmt.Errorf("failed to save dispatch history: %w", err)
		}
	}

	logger.Debugf("Saved %d dispatch history entries to Redis", len(fields))

	return nil
}

func (c *Client) Close() error {
	c.client.Close()
	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}

type historyField struct {
	id    string
	value string
}

func encodeHistory(history domain.DispatchHistory) ([]historyField, error) {
	fields := make([]historyField, 0, len(history))
	for id, status := range history {
		data, err := json.Marshal(status)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal dispatch status %s: %w", id, err)
		}
		fields = append(fields, historyField{id: id, value: string(data)})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].id < fields[j].id })
	return fields, nil
}

// decodeHistory skips entries that do not decode instead of failing the load.
func decodeHistory(fields map[string]string) domain.DispatchHistory {
	history := make(domain.DispatchHistory, len(fields))
	for id, raw := range fields {
		var status domain.DispatchStatus
		if err := json.Unmarshal([]byte(raw), &status); err != nil {
			logger.Warnf("Skipping unreadable dispatch history entry %q: %v", id, err)
			continue
		}
		history[id] = status
	}
	return history
}
