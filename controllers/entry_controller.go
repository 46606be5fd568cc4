package controllers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feedreel/feedreel/entries"
	"github.com/feedreel/feedreel/global"
	"github.com/feedreel/feedreel/models"
	"github.com/feedreel/feedreel/realtime"
)

func entryService() *entries.Service {
	return entries.NewService(global.DB)
}

func countsPublisher() *realtime.Publisher {
	return realtime.NewPublisher(global.RedisDB)
}

// respondEngineError maps engine errors onto HTTP statuses. Everything else
// passes through as a 500; the engine performs no retries or fallbacks.
func respondEngineError(c *gin.Context, err error) {
	var validationErr *entries.ValidationError
	var notFoundErr *entries.NotFoundError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

type entryFilterQuery struct {
	SubscriptionID *string  `form:"subscriptionId"`
	TagID          *string  `form:"tagId"`
	Uncategorized  bool     `form:"uncategorized"`
	Type           string   `form:"type"`
	ExcludeTypes   []string `form:"excludeTypes"`
	UnreadOnly     bool     `form:"unreadOnly"`
	ReadOnly       bool     `form:"readOnly"`
	StarredOnly    bool     `form:"starredOnly"`
	UnstarredOnly  bool     `form:"unstarredOnly"`
	ShowSpam       bool     `form:"showSpam"`
}

func (q entryFilterQuery) toFilters() entries.Filters {
	f := entries.Filters{
		Scope: entries.Scope{
			SubscriptionID: q.SubscriptionID,
			TagID:          q.TagID,
			Uncategorized:  q.Uncategorized,
		},
		UnreadOnly:    q.UnreadOnly,
		ReadOnly:      q.ReadOnly,
		StarredOnly:   q.StarredOnly,
		UnstarredOnly: q.UnstarredOnly,
		ShowSpam:      q.ShowSpam,
	}
	if q.Type != "" {
		t := models.EntryType(q.Type)
		f.Type = &t
	}
	for _, t := range q.ExcludeTypes {
		f.ExcludeTypes = append(f.ExcludeTypes, models.EntryType(t))
	}
	return f
}

func GetEntries(c *gin.Context) {
	var query struct {
		entryFilterQuery
		SortOrder string  `form:"sortOrder"`
		Limit     int     `form:"limit"`
		Cursor    *string `form:"cursor"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := entryService().ListEntries(c.Request.Context(), entries.ListParams{
		UserID:    c.GetString("user_id"),
		Filters:   query.toFilters(),
		SortOrder: entries.SortOrder(query.SortOrder),
		Limit:     query.Limit,
		Cursor:    query.Cursor,
	})
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func SearchEntries(c *gin.Context) {
	var query struct {
		entryFilterQuery
		Query    string  `form:"query"`
		SearchIn string  `form:"searchIn"`
		Limit    int     `form:"limit"`
		Cursor   *string `form:"cursor"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := entryService().SearchEntries(c.Request.Context(), entries.SearchParams{
		UserID:   c.GetString("user_id"),
		Query:    query.Query,
		SearchIn: entries.SearchField(query.SearchIn),
		Filters:  query.toFilters(),
		Limit:    query.Limit,
		Cursor:   query.Cursor,
	})
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func CountEntries(c *gin.Context) {
	var query entryFilterQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := entryService().CountEntries(c.Request.Context(), entries.CountParams{
		UserID:  c.GetString("user_id"),
		Filters: query.toFilters(),
	})
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func GetEntryByID(c *gin.Context) {
	item, err := entryService().GetEntry(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func MarkEntriesRead(c *gin.Context) {
	var input struct {
		EntryIDs []string `json:"entryIds" binding:"required"`
		Read     *bool    `json:"read" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	userID := c.GetString("user_id")
	svc := entryService()

	result, err := svc.MarkEntriesRead(ctx, userID, input.EntryIDs, *input.Read)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	if len(result.Entries) > 0 {
		ids := make([]string, 0, len(result.Entries))
		for _, e := range result.Entries {
			ids = append(ids, e.ID)
		}
		if payloads, err := svc.GetBulkEntryRelatedCounts(ctx, userID, ids); err == nil {
			countsPublisher().PublishCounts(ctx, userID, payloads)
		} else {
			log.Printf("related counts after mark-read failed for user %s: %v", userID, err)
		}
	}

	c.JSON(http.StatusOK, result)
}

func UpdateEntryStarred(c *gin.Context) {
	var input struct {
		Starred *bool `json:"starred" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	userID := c.GetString("user_id")
	entryID := c.Param("id")
	svc := entryService()

	state, err := svc.UpdateEntryStarred(ctx, userID, entryID, *input.Starred)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	if payload, err := svc.GetEntryRelatedCounts(ctx, userID, entryID); err == nil {
		countsPublisher().PublishCounts(ctx, userID, payload)
	} else {
		log.Printf("related counts after star update failed for user %s: %v", userID, err)
	}

	c.JSON(http.StatusOK, state)
}

// CreateSavedEntry stores user-captured content. Saved entries belong to no
// feed; the owning user id scopes their visibility instead.
func CreateSavedEntry(c *gin.Context) {
	var input struct {
		Title   string `json:"title" binding:"required"`
		Author  string `json:"author"`
		URL     string `json:"url"`
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	userID := c.GetString("user_id")

	entry := models.Entry{
		Type:    models.EntryTypeSaved,
		UserID:  &userID,
		Title:   input.Title,
		Author:  input.Author,
		URL:     input.URL,
		Content: input.Content,
	}
	if err := global.DB.WithContext(ctx).Create(&entry).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	svc := entryService()
	if payload, err := svc.GetEntryRelatedCounts(ctx, userID, entry.ID); err == nil {
		countsPublisher().PublishCounts(ctx, userID, payload)
	} else {
		log.Printf("related counts after save failed for user %s: %v", userID, err)
	}

	c.JSON(http.StatusCreated, entry)
}
