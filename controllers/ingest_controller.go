package controllers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/feedreel/feedreel/global"
	"github.com/feedreel/feedreel/models"
)

type ingestEntry struct {
	GUID        string     `json:"guid" binding:"required"`
	Title       string     `json:"title" binding:"required"`
	Author      string     `json:"author"`
	URL         string     `json:"url"`
	Content     string     `json:"content"`
	PublishedAt *time.Time `json:"publishedAt"`
	IsSpam      bool       `json:"isSpam"`
}

// IngestEntries accepts already-parsed entry rows from the fetching pipeline
// and inserts the ones not yet stored. Parsing, deduplication heuristics, and
// spam classification happen upstream; this endpoint only persists.
func IngestEntries(c *gin.Context) {
	var input struct {
		FeedURL string        `json:"feedUrl" binding:"required"`
		Type    string        `json:"type"`
		Entries []ingestEntry `json:"entries" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entryType := models.EntryTypeWeb
	switch input.Type {
	case "", string(models.EntryTypeWeb):
	case string(models.EntryTypeEmail):
		entryType = models.EntryTypeEmail
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be web or email"})
		return
	}

	ctx := c.Request.Context()
	db := global.DB.WithContext(ctx)

	feed := models.Feed{URL: input.FeedURL}
	if err := db.Where("url = ?", input.FeedURL).FirstOrCreate(&feed).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	inserted := []models.Entry{}
	warnings := []string{}
	now := time.Now().UTC()

	for _, in := range input.Entries {
		// Deduplicate by GUID within the feed.
		var existing models.Entry
		err := db.Where("feed_id = ? AND guid = ?", feed.ID, in.GUID).First(&existing).Error
		if err == nil {
			continue // already stored
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			warnings = append(warnings, in.GUID+": "+err.Error())
			continue
		}

		entry := models.Entry{
			Type:        entryType,
			FeedID:      &feed.ID,
			GUID:        in.GUID,
			Title:       in.Title,
			Author:      in.Author,
			URL:         in.URL,
			Content:     in.Content,
			PublishedAt: in.PublishedAt,
			FetchedAt:   now,
			IsSpam:      in.IsSpam,
		}
		if err := db.Create(&entry).Error; err != nil {
			warnings = append(warnings, in.GUID+": "+err.Error())
			continue
		}
		inserted = append(inserted, entry)
	}

	if len(inserted) > 0 {
		if err := db.Model(&models.Feed{}).
			Where("id = ?", feed.ID).
			Update("last_fetched", &now).Error; err != nil {
			warnings = append(warnings, "last_fetched: "+err.Error())
		}
		publishNewEntryCounts(c, entryType, feed.ID)
	}

	c.JSON(http.StatusOK, gin.H{
		"inserted": len(inserted),
		"entries":  inserted,
		"warnings": warnings,
	})
}

// publishNewEntryCounts pushes updated sidebar counts to every subscriber of
// the feed that just received entries.
func publishNewEntryCounts(c *gin.Context, entryType models.EntryType, feedID string) {
	ctx := c.Request.Context()

	var userIDs []string
	err := global.DB.WithContext(ctx).
		Table("subscriptions AS s").
		Joins("JOIN subscription_feeds sf ON sf.subscription_id = s.id").
		Where("sf.feed_id = ? AND s.deleted_at IS NULL", feedID).
		Distinct().
		Pluck("s.user_id", &userIDs).Error
	if err != nil {
		log.Printf("subscriber lookup for feed %s failed: %v", feedID, err)
		return
	}

	svc := entryService()
	publisher := countsPublisher()
	for _, userID := range userIDs {
		payload, err := svc.GetNewEntryRelatedCounts(ctx, userID, entryType, &feedID)
		if err != nil {
			log.Printf("new-entry counts for user %s failed: %v", userID, err)
			continue
		}
		publisher.PublishCounts(ctx, userID, payload)
	}
}
