package msgrouter

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/msgboard/msgboard/engine/infra/server/router"
	"github.com/msgboard/msgboard/engine/message"
)

// CreateMessageRequest is the body of POST /messages.
type CreateMessageRequest struct {
	Text string `json:"text"`
}

// getLatestMessage returns the newest message
//
//	@Summary	Get the latest message
//	@Tags		messages
//	@Produce	json
//	@Success	200	{object}	router.Response{data=message.Message}
//	@Failure	404	{object}	router.Response{error=router.ErrorInfo}	"Board is empty"
//	@Router		/messages/latest [get]
func getLatestMessage(c *gin.Context) {
	appState := router.GetAppState(c)
	if appState == nil {
		return
	}
	msg, err := appState.Messages.Latest(c.Request.Context())
	if err != nil {
		respondMessageError(c, err, "failed to load latest message")
		return
	}
	router.RespondOK(c, "message retrieved", msg)
}

// listMessages returns one archive page
//
//	@Summary	List messages
//	@Tags		messages
//	@Produce	json
//	@Param		page	query		string	false	"Page number"
//	@Success	200		{object}	router.Response{data=message.Page}
//	@Router		/messages [get]
func listMessages(c *gin.Context) {
	appState := router.GetAppState(c)
	if appState == nil {
		return
	}
	page, err := appState.Messages.Archive(c.Request.Context(), c.Query("page"))
	if err != nil {
		respondMessageError(c, err, "failed to list messages")
		return
	}
	router.RespondOK(c, "messages retrieved", page)
}

// createMessage stores a new message
//
//	@Summary	Post a message
//	@Tags		messages
//	@Accept		json
//	@Produce	json
//	@Param		body	body		CreateMessageRequest	true	"Message"
//	@Success	201		{object}	router.Response{data=message.Message}
//	@Failure	400		{object}	router.Response{error=router.ErrorInfo}
//	@Router		/messages [post]
func createMessage(c *gin.Context) {
	appState := router.GetAppState(c)
	if appState == nil {
		return
	}
	var req CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		reqErr := router.NewRequestError(http.StatusBadRequest, "invalid request body", err)
		router.RespondWithError(c, reqErr.StatusCode, reqErr)
		return
	}
	msg, err := appState.Messages.Post(c.Request.Context(), req.Text)
	if err != nil {
		respondMessageError(c, err, "failed to save message")
		return
	}
	router.RespondCreated(c, "message created", msg)
}

func respondMessageError(c *gin.Context, err error, reason string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, message.ErrEmptyMessage), errors.Is(err, message.ErrMessageTooLong):
		status = http.StatusBadRequest
		reason = err.Error()
	case errors.Is(err, message.ErrNotFound):
		status = http.StatusNotFound
		reason = err.Error()
	}
	router.RespondWithError(c, status, router.NewRequestError(status, reason, err))
}
