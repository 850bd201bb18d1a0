package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"venue-manager/chat"
	"venue-manager/models"
)

func (a *API) publicMessages(c *gin.Context) {
	limit, ok := queryInt(c, "limit", historyLimit)
	if !ok {
		return
	}
	if limit == 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	messages, err := a.store.ListPublicMessages(c.Request.Context(), limit)
	if err != nil {
		a.fail(c, "Message", err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

// conversation returns the private history with another user and marks the
// messages they sent as read.
func (a *API) conversation(c *gin.Context) {
	otherID, ok := paramID(c, "id")
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", historyLimit)
	if !ok {
		return
	}
	if limit == 0 || limit > maxPageSize {
		limit = maxPageSize
	}

	ctx := c.Request.Context()
	me := currentUser(c)
	if _, err := a.store.GetUser(ctx, otherID); err != nil {
		a.fail(c, "User", err)
		return
	}
	messages, err := a.store.ListConversation(ctx, me.ID, otherID, limit)
	if err != nil {
		a.fail(c, "Message", err)
		return
	}
	if err := a.store.MarkConversationRead(ctx, otherID, me.ID); err != nil {
		a.fail(c, "Message", err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (a *API) sendMessage(c *gin.Context) {
	var req models.ChatMessageCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	msg, err := a.chat.Send(c.Request.Context(), currentUser(c), req)
	switch {
	case errors.Is(err, chat.ErrKindNotAllowed):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case chat.IsClientError(err):
		badRequest(c, err.Error())
	case err != nil:
		a.fail(c, "Message", err)
	default:
		c.JSON(http.StatusCreated, msg)
	}
}

func (a *API) markRead(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := a.store.MarkRead(c.Request.Context(), id, currentUser(c).ID); err != nil {
		a.fail(c, "Message", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Message marked as read"})
}

func (a *API) unread(c *gin.Context) {
	counts, err := a.store.UnreadCounts(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		a.fail(c, "Message", err)
		return
	}
	total := 0
	for _, uc := range counts {
		total += uc.Count
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "by_sender": counts})
}

func (a *API) online(c *gin.Context) {
	c.JSON(http.StatusOK, a.chat.OnlineUsers())
}
