package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feedreel/feedreel/global"
	"github.com/feedreel/feedreel/models"
)

func CreateTag(c *gin.Context) {
	var input struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tag := models.Tag{UserID: c.GetString("user_id"), Name: input.Name}
	if err := global.DB.WithContext(c.Request.Context()).Create(&tag).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, tag)
}

func GetTags(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetString("user_id")

	var tags []models.Tag
	err := global.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name").
		Find(&tags).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ids := make([]string, 0, len(tags))
	for _, t := range tags {
		ids = append(ids, t.ID)
	}
	counts, err := entryService().TagUnreadCounts(ctx, userID, ids)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tags":         tags,
		"unreadCounts": counts,
	})
}

func DeleteTag(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetString("user_id")
	tagID := c.Param("id")

	res := global.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", tagID, userID).
		Delete(&models.Tag{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": res.Error.Error()})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "tag not found"})
		return
	}

	// Drop dangling associations; affected subscriptions become
	// uncategorized if this was their only tag.
	if err := global.DB.WithContext(ctx).
		Where("tag_id = ?", tagID).
		Delete(&models.SubscriptionTag{}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": tagID})
}
