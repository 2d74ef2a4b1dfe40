package store

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"strconv"

	"github.com/dgraph-io/badger/v4"

	"github.com/readaloudapp/readaloud-server/internal/domain"
	"github.com/readaloudapp/readaloud-server/internal/errors"
)

// segmentPrefix namespaces cache entries. The format version sits between
// the prefix and the digest so bumping it orphans old entries wholesale
// instead of corrupting them.
const segmentPrefix = "seg:"

// SegmentEntry is the cached payload for one synthesized segment: the raw
// audio plus the provider's character alignment (which may be empty).
type SegmentEntry struct {
	Audio     []byte                     `json:"audio"`
	Alignment *domain.CharacterAlignment `json:"alignment,omitempty"`
}

// segmentKey builds the full database key for a segment digest.
func segmentKey(formatVersion int, digest string) []byte {
	key := make([]byte, 0, len(segmentPrefix)+len(digest)+8)
	key = append(key, segmentPrefix...)
	key = append(key, 'v')
	key = strconv.AppendInt(key, int64(formatVersion), 10)
	key = append(key, ':')
	key = append(key, digest...)
	return key
}

// GetSegment looks up a cached segment by its content digest.
// Returns errors.ErrNotFound when the segment has not been cached.
func (s *Store) GetSegment(ctx context.Context, formatVersion int, digest string) (*SegmentEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entry SegmentEntry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(segmentKey(formatVersion, digest))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return errors.ErrNotFound
			}
			return fmt.Errorf("get segment: %w", err)
		}
		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &entry); err != nil {
				return fmt.Errorf("unmarshal segment entry: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// PutSegment stores a synthesized segment under its content digest.
// Entries are immutable: identical digests always map to identical content,
// so overwriting a concurrent write of the same key is harmless.
func (s *Store) PutSegment(ctx context.Context, formatVersion int, digest string, entry *SegmentEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal segment entry: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(segmentKey(formatVersion, digest), data)
	})
	if err != nil {
		return fmt.Errorf("put segment: %w", err)
	}

	s.logger.Debug("cached segment",
		"digest", digest,
		"format_version", formatVersion,
		"audio_bytes", len(entry.Audio),
	)
	return nil
}
