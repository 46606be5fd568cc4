package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/feedreel/feedreel/global"
	"github.com/feedreel/feedreel/models"
)

func CreateSubscription(c *gin.Context) {
	var input struct {
		Title    string   `json:"title" binding:"required"`
		FeedURLs []string `json:"feedUrls" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	userID := c.GetString("user_id")

	var sub models.Subscription
	err := global.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub = models.Subscription{UserID: userID, Title: input.Title}
		if err := tx.Create(&sub).Error; err != nil {
			return err
		}
		for _, url := range input.FeedURLs {
			feed := models.Feed{URL: url}
			if err := tx.Where("url = ?", url).FirstOrCreate(&feed).Error; err != nil {
				return err
			}
			link := models.SubscriptionFeed{SubscriptionID: sub.ID, FeedID: feed.ID}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, sub)
}

func GetSubscriptions(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetString("user_id")

	var subs []models.Subscription
	err := global.DB.WithContext(ctx).
		Preload("Tags").
		Where("user_id = ?", userID).
		Order("title").
		Find(&subs).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Unread counts are re-derived on every listing; nothing is cached.
	ids := make([]string, 0, len(subs))
	for _, s := range subs {
		ids = append(ids, s.ID)
	}
	counts, err := entryService().SubscriptionUnreadCounts(ctx, userID, ids)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"subscriptions": subs,
		"unreadCounts":  counts,
	})
}

// DeleteSubscription soft-deletes (unsubscribes). Per-user entry state for
// the subscription's feeds survives, so resubscribing restores read flags.
func DeleteSubscription(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetString("user_id")
	subID := c.Param("id")

	res := global.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", subID, userID).
		Delete(&models.Subscription{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": res.Error.Error()})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "subscription not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": subID})
}

// AttachTag links an owned tag to an owned subscription.
func AttachTag(c *gin.Context) {
	var input struct {
		TagID string `json:"tagId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	userID := c.GetString("user_id")
	subID := c.Param("id")

	db := global.DB.WithContext(ctx)
	var sub models.Subscription
	if err := db.Where("id = ? AND user_id = ?", subID, userID).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "subscription not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	var tag models.Tag
	if err := db.Where("id = ? AND user_id = ?", input.TagID, userID).First(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "tag not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	link := models.SubscriptionTag{SubscriptionID: sub.ID, TagID: tag.ID}
	if err := db.FirstOrCreate(&link).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, link)
}

func DetachTag(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetString("user_id")
	subID := c.Param("id")
	tagID := c.Param("tagId")

	db := global.DB.WithContext(ctx)
	var sub models.Subscription
	if err := db.Where("id = ? AND user_id = ?", subID, userID).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "subscription not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	res := db.Where("subscription_id = ? AND tag_id = ?", subID, tagID).
		Delete(&models.SubscriptionTag{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": res.Error.Error()})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "tag not attached"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"detached": tagID})
}
