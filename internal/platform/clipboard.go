// Package platform wraps host integrations that tests need to replace.
package platform

import (
	"fmt"
	"sync"

	"github.com/atotto/clipboard"
)

// Clipboard writes text to a clipboard.
type Clipboard interface {
	WriteAll(text string) error
	ReadAll() (string, error)
}

// SystemClipboard uses the host clipboard (pbcopy, xclip, xsel, wl-copy or
// the Windows API, whichever is available).
type SystemClipboard struct{}

// NewSystemClipboard returns the host clipboard, or an error when the host
// has no clipboard utility.
func NewSystemClipboard() (*SystemClipboard, error) {
	if clipboard.Unsupported {
		return nil, fmt.Errorf("no clipboard utility found (install xclip, xsel or wl-clipboard)")
	}
	return &SystemClipboard{}, nil
}

// WriteAll implements Clipboard.
func (SystemClipboard) WriteAll(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}

// ReadAll implements Clipboard.
func (SystemClipboard) ReadAll() (string, error) {
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("read clipboard: %w", err)
	}
	return text, nil
}

// MemoryClipboard keeps the clipboard in memory.
type MemoryClipboard struct {
	mu   sync.Mutex
	text string
}

// WriteAll implements Clipboard.
func (m *MemoryClipboard) WriteAll(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	return nil
}

// ReadAll implements Clipboard.
func (m *MemoryClipboard) ReadAll() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}
