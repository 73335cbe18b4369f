package core

import (
	"context"
	"fmt"
	"strings"
)

// HandleTabUpdate watches navigation events from the host browser. When an
// authentication tab reaches the backend's callback URL, the SCA ceremony is
// over as far as the browser is concerned: the tab is closed and the
// correlation entry dropped. No status event is produced here; the
// authoritative outcome arrives through the push channel.
func (s *Service) HandleTabUpdate(ctx context.Context, update TabUpdate) error {
	if s == nil {
		return fmt.Errorf("core: service is nil")
	}
	url := strings.TrimSpace(update.URL)
	if url == "" {
		return nil
	}
	prefix := strings.TrimSpace(s.config.Backend.CallbackURLPrefix)
	if prefix == "" || !strings.HasPrefix(url, prefix) {
		return nil
	}

	entry, found, err := s.scaStore.ResolveByTab(ctx, update.TabID)
	if err != nil {
		return s.mapError(err)
	}
	if !found {
		// A callback navigation in a tab we never opened; not ours to manage.
		return nil
	}

	if s.tabs != nil {
		if closeErr := s.tabs.Close(ctx, update.TabID); closeErr != nil {
			s.logError(ctx, "closing completed sca tab failed", map[string]any{
				"transaction_id": entry.TransactionID,
				"tab_id":         update.TabID,
				"error":          closeErr.Error(),
			})
		}
	}
	if removeErr := s.scaStore.Remove(ctx, entry.TransactionID); removeErr != nil {
		return s.mapError(removeErr)
	}

	s.logInfo(ctx, "sca ceremony completed; awaiting pushed resolution", map[string]any{
		"transaction_id": entry.TransactionID,
		"tab_id":         update.TabID,
	})
	return nil
}
