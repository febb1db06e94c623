// Package exchange reads and writes the journal's bulk import/export file.
package exchange

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"trade-journal-go/internal/models"
)

// ErrUnknownFormat is returned for a format or file extension that has no codec.
var ErrUnknownFormat = errors.New("unknown bundle format")

// Format names a bundle encoding.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// Bundle is everything an export carries. Screenshots travel as references only.
type Bundle struct {
	Trades            []models.Trade            `json:"trades" yaml:"trades"`
	PortfolioSettings *models.PortfolioSettings `json:"portfolioSettings,omitempty" yaml:"portfolioSettings,omitempty"`
	PortfolioValue    *float64                  `json:"portfolioValue,omitempty" yaml:"portfolioValue,omitempty"`
	AppSettings       map[string]any            `json:"appSettings,omitempty" yaml:"appSettings,omitempty"`
	ExportDate        time.Time                 `json:"exportDate" yaml:"exportDate"`
}

// ParseFormat accepts "json", "yaml" and "yml", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrUnknownFormat)
	}
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%s has no extension: %w", path, ErrUnknownFormat)
	}
	return ParseFormat(ext)
}

// Encode writes b to w.
func Encode(w io.Writer, b Bundle, f Format) error {
	if b.Trades == nil {
		b.Trades = []models.Trade{}
	}
	switch f {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(b); err != nil {
			return fmt.Errorf("failed to encode json bundle: %w", err)
		}
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(b); err != nil {
			return fmt.Errorf("failed to encode yaml bundle: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to flush yaml bundle: %w", err)
		}
	default:
		return fmt.Errorf("%q: %w", f, ErrUnknownFormat)
	}
	return nil
}

// Decode reads a bundle from r.
func Decode(r io.Reader, f Format) (Bundle, error) {
	var b Bundle
	switch f {
	case JSON:
		if err := json.NewDecoder(r).Decode(&b); err != nil {
			return Bundle{}, fmt.Errorf("failed to decode json bundle: %w", err)
		}
	case YAML:
		if err := yaml.NewDecoder(r).Decode(&b); err != nil {
			return Bundle{}, fmt.Errorf("failed to decode yaml bundle: %w", err)
		}
	default:
		return Bundle{}, fmt.Errorf("%q: %w", f, ErrUnknownFormat)
	}
	return b, nil
}
