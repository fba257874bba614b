package models

import (
	"encoding/base64"
	"errors"
	"strings"
)

var ErrNotDataURL = errors.New("not a base64 data URL")

// DataURL is a decoded "data:<mime>;base64,<payload>" URL.
type DataURL struct {
	MimeType string
	Data     []byte
}

// IsDataURL reports whether s looks like a data URL.
func IsDataURL(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// ParseDataURL decodes a base64 data URL. Providers that cannot reference
// image URLs directly use it to inline attachment bytes.
func ParseDataURL(s string) (DataURL, error) {
	if !IsDataURL(s) {
		return DataURL{}, ErrNotDataURL
	}
	header, payload, ok := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return DataURL{}, ErrNotDataURL
	}
	mimeType := strings.TrimSuffix(header, ";base64")
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}

	data, err := DecodeBase64(payload)
	if err != nil {
		return DataURL{}, err
	}
	return DataURL{MimeType: mimeType, Data: data}, nil
}

// DecodeBase64 decodes standard base64, ignoring whitespace and accepting
// payloads with or without padding.
func DecodeBase64(payload string) ([]byte, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, payload)

	if data, err := base64.StdEncoding.DecodeString(cleaned); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(cleaned, "="))
}
