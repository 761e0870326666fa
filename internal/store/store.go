package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"SalaryHedge/internal/model"
)

// Record kinds, the second component of every key.
const (
	KindConfig = "CONFIG"
	KindEvents = "EVENTS"
)

const sep = 0x00

// Store keeps per-user configuration and conversion history on a KV.
type Store struct {
	kv       KV
	capacity uint32
}

// New wraps kv with the default history capacity.
func New(kv KV) *Store {
	return &Store{kv: kv, capacity: model.HistoryCapacity}
}

func recordKey(user model.UserID, kind string, extra ...string) []byte {
	key := append([]byte(user), sep)
	key = append(key, kind...)
	for _, e := range extra {
		key = append(key, sep)
		key = append(key, e...)
	}
	return key
}

func configKey(user model.UserID) []byte { return recordKey(user, KindConfig) }
func eventsKey(user model.UserID) []byte { return recordKey(user, KindEvents) }
func slotKey(user model.UserID, slot uint32) []byte {
	return recordKey(user, KindEvents, strconv.FormatUint(uint64(slot), 10))
}

// Config loads the configuration of user, or ErrNotFound.
func (s *Store) Config(user model.UserID) (model.UserConfig, error) {
	var cfg model.UserConfig
	data, err := s.kv.Get(configKey(user))
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// HasConfig reports whether user is configured.
func (s *Store) HasConfig(user model.UserID) (bool, error) {
	return s.kv.Has(configKey(user))
}

// PutConfig writes cfg without touching the history.
func (s *Store) PutConfig(cfg model.UserConfig) error {
	return s.Commit(cfg, nil)
}

// Commit writes cfg and, when evt is not nil, appends evt to the owner's
// history. Both land in one atomic batch.
func (s *Store) Commit(cfg model.UserConfig, evt *model.ConversionEvent) error {
	if err := cfg.User.Validate(); err != nil {
		return err
	}
	cfgData, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	ops := []Op{Put(configKey(cfg.User), cfgData)}

	if evt != nil {
		hdr, err := s.header(cfg.User)
		if err != nil {
			return err
		}
		slot, next := hdr.push(s.capacity)
		evtData, err := json.Marshal(evt)
		if err != nil {
			return fmt.Errorf("encode event: %w", err)
		}
		hdrData, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encode history header: %w", err)
		}
		ops = append(ops,
			Put(slotKey(cfg.User, slot), evtData),
			Put(eventsKey(cfg.User), hdrData),
		)
	}
	return s.kv.Apply(ops)
}

func (s *Store) header(user model.UserID) (ring, error) {
	var hdr ring
	data, err := s.kv.Get(eventsKey(user))
	if errors.Is(err, ErrNotFound) {
		return hdr, nil
	}
	if err != nil {
		return hdr, err
	}
	if err := json.Unmarshal(data, &hdr); err != nil {
		return hdr, fmt.Errorf("decode history header: %w", err)
	}
	if hdr.Len > s.capacity || hdr.Head >= s.capacity {
		return ring{}, fmt.Errorf("history header out of range: head=%d len=%d", hdr.Head, hdr.Len)
	}
	return hdr, nil
}

// History returns the user's conversion events, oldest first. An unknown
// user has an empty history.
func (s *Store) History(user model.UserID) ([]model.ConversionEvent, error) {
	hdr, err := s.header(user)
	if err != nil {
		return nil, err
	}
	events := make([]model.ConversionEvent, 0, hdr.Len)
	for _, slot := range hdr.slots(s.capacity) {
		data, err := s.kv.Get(slotKey(user, slot))
		if err != nil {
			return nil, fmt.Errorf("history slot %d: %w", slot, err)
		}
		var evt model.ConversionEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		events = append(events, evt)
	}
	return events, nil
}

// Remove deletes the configuration and every history record of user together.
func (s *Store) Remove(user model.UserID) error {
	ops := make([]Op, 0, s.capacity+2)
	ops = append(ops, Del(configKey(user)), Del(eventsKey(user)))
	for slot := uint32(0); slot < s.capacity; slot++ {
		ops = append(ops, Del(slotKey(user, slot)))
	}
	return s.kv.Apply(ops)
}

// Close releases the underlying KV.
func (s *Store) Close() error {
	return s.kv.Close()
}
