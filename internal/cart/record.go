package cart

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/cart-engine/internal/domain"
)

// RecordVersion is written into every stored cart. Version 0 is the unversioned bare array of lines.
const RecordVersion = 1

var ErrUnsupportedVersion = errors.New("unsupported cart record version")

type record struct {
	Version int               `json:"version"`
	Owner   domain.OwnerKey   `json:"owner"`
	Lines   []domain.CartLine `json:"lines"`
	SavedAt time.Time         `json:"saved_at"`
}

func encodeRecord(owner domain.OwnerKey, lines []domain.CartLine, now time.Time) ([]byte, error) {
	data, err := json.Marshal(record{
		Version: RecordVersion,
		Owner:   owner,
		Lines:   lines,
		SavedAt: now.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal cart failed: %w", err)
	}
	return data, nil
}

func decodeRecord(data []byte) ([]domain.CartLine, error) {
	data = bytes.TrimSpace(data)

	var lines []domain.CartLine
	if bytes.HasPrefix(data, []byte("[")) {
		if err := json.Unmarshal(data, &lines); err != nil {
			return nil, fmt.Errorf("unmarshal cart failed: %w", err)
		}
	} else {
		var rec record
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("unmarshal cart failed: %w", err)
		}
		if rec.Version != RecordVersion {
			return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, rec.Version)
		}
		lines = rec.Lines
	}

	if err := validateLines(lines); err != nil {
		return nil, err
	}
	return lines, nil
}

func validateLines(lines []domain.CartLine) error {
	seen := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		if l.Product.ID == "" {
			return errors.New("cart line without product id")
		}
		if l.Quantity <= 0 {
			return fmt.Errorf("cart line %s has quantity %d", l.Product.ID, l.Quantity)
		}
		if _, dup := seen[l.Product.ID]; dup {
			return fmt.Errorf("duplicate cart line %s", l.Product.ID)
		}
		seen[l.Product.ID] = struct{}{}
	}
	return nil
}
