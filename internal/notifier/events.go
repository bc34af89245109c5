package notifier

import (
	"github.com/aleister1102/sitewatch/internal/models"
)

// NewUpdateEvent assembles the broadcast payload for a detected change
func NewUpdateEvent(site *models.Site, update *models.Update, preview string) models.UpdateEvent {
	return models.UpdateEvent{
		SiteID:         site.ID,
		URL:            site.URL,
		Timestamp:      update.Timestamp,
		ContentHash:    update.ContentHash,
		ContentPreview: preview,
		LinesAdded:     update.LinesAdded,
		LinesRemoved:   update.LinesRemoved,
		HasFullContent: update.Content != "",
	}
}
