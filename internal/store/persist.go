package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"cv-analyzer-client/internal/common/config"
	"cv-analyzer-client/internal/common/logger"
	"cv-analyzer-client/internal/models"
)

// Snapshot is the durable subset of the store. Upload progress, statuses
// and in-flight analysis state are transient and deliberately absent.
type Snapshot struct {
	CurrentTab      models.Tab               `json:"current_tab"`
	Candidates      []models.CandidateRecord `json:"cvs"`
	JobDescriptions []models.JobDescription  `json:"jds"`
	MatchResults    []models.MatchResult     `json:"match_results"`
	SavedAt         time.Time                `json:"saved_at"`
}

// Snapshot captures the durable slices under one lock acquisition.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		CurrentTab:      s.currentTab,
		Candidates:      make([]models.CandidateRecord, len(s.candidates)),
		JobDescriptions: make([]models.JobDescription, len(s.jobDescriptions)),
		MatchResults:    make([]models.MatchResult, len(s.matchResults)),
		SavedAt:         time.Now(),
	}
	copy(snap.Candidates, s.candidates)
	copy(snap.JobDescriptions, s.jobDescriptions)
	copy(snap.MatchResults, s.matchResults)
	return snap
}

// Restore loads a snapshot into the store. Transient state is untouched,
// so restoring mid-session never clobbers an in-flight run.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	if snap.CurrentTab != "" {
		s.currentTab = snap.CurrentTab
	}
	s.candidates = append([]models.CandidateRecord{}, snap.Candidates...)
	s.jobDescriptions = append([]models.JobDescription{}, snap.JobDescriptions...)
	s.matchResults = append([]models.MatchResult{}, snap.MatchResults...)
	s.mu.Unlock()
	s.signal()
}

// SessionStore persists snapshots to Redis.
type SessionStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	log    logger.Logger
}

func NewSessionStore(cfg config.SessionConfig, log logger.Logger) *SessionStore {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Address,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	return &SessionStore{
		client: rdb,
		key:    cfg.KeyPrefix,
		ttl:    time.Duration(cfg.TTL) * time.Second,
		log:    log,
	}
}

// NewSessionStoreWithClient is used by tests to back the session store
// with an already-constructed client.
func NewSessionStoreWithClient(client *redis.Client, key string, ttl time.Duration, log logger.Logger) *SessionStore {
	return &SessionStore{client: client, key: key, ttl: ttl, log: log}
}

func (p *SessionStore) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (p *SessionStore) Save(ctx context.Context, snap Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal session snapshot: %w", err)
	}
	if err := p.client.Set(ctx, p.key, payload, p.ttl).Err(); err != nil {
		return fmt.Errorf("save session snapshot: %w", err)
	}
	p.log.Debug("session snapshot saved", map[string]interface{}{
		"key":   p.key,
		"bytes": len(payload),
	})
	return nil
}

// Load returns the stored snapshot, or ok=false when none exists.
func (p *SessionStore) Load(ctx context.Context) (Snapshot, bool, error) {
	raw, err := p.client.Get(ctx, p.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("load session snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("decode session snapshot: %w", err)
	}
	return snap, true, nil
}

func (p *SessionStore) Clear(ctx context.Context) error {
	return p.client.Del(ctx, p.key).Err()
}

func (p *SessionStore) Close() error {
	return p.client.Close()
}
