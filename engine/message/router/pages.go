package msgrouter

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/msgboard/msgboard/engine/infra/server/router"
	"github.com/msgboard/msgboard/engine/message"
	"github.com/msgboard/msgboard/pkg/logger"
)

const (
	noMessagesText   = "There are no messages to display."
	noMessagesTime   = "N/A"
	emptyWarning     = "The message submitted was empty! Please try again."
	tooLongWarning   = "The message submitted was too long! Please try again."
	archivePath      = "/archive"
	formMessageField = "msg"
)

type indexView struct {
	Text      string
	Time      string
	Warning   string
	MaxLength int
}

type archiveView struct {
	Page *message.Page
}

func showIndex(c *gin.Context) {
	renderIndex(c, http.StatusOK, "")
}

func submitMessage(c *gin.Context) {
	appState := router.GetAppState(c)
	if appState == nil {
		return
	}
	_, err := appState.Messages.Post(c.Request.Context(), c.PostForm(formMessageField))
	switch {
	case err == nil:
		c.Redirect(http.StatusFound, archivePath)
	case errors.Is(err, message.ErrEmptyMessage):
		renderIndex(c, http.StatusOK, emptyWarning)
	case errors.Is(err, message.ErrMessageTooLong):
		renderIndex(c, http.StatusBadRequest, tooLongWarning)
	default:
		reqErr := router.NewRequestError(http.StatusInternalServerError, "failed to save message", err)
		router.RespondWithError(c, reqErr.StatusCode, reqErr)
	}
}

func renderIndex(c *gin.Context, status int, warning string) {
	appState := router.GetAppState(c)
	if appState == nil {
		return
	}
	view := indexView{
		Text:      noMessagesText,
		Time:      noMessagesTime,
		Warning:   warning,
		MaxLength: appState.Config.Board.MaxLength,
	}
	latest, err := appState.Messages.Latest(c.Request.Context())
	switch {
	case err == nil:
		view.Text = latest.Text
		view.Time = formatTime(latest.CreatedAt)
	case !errors.Is(err, message.ErrNotFound):
		reqErr := router.NewRequestError(http.StatusInternalServerError, "failed to load latest message", err)
		router.RespondWithError(c, reqErr.StatusCode, reqErr)
		return
	}
	c.Render(status, render.HTML{Template: pages, Name: "index.html", Data: view})
}

func showArchive(c *gin.Context) {
	appState := router.GetAppState(c)
	if appState == nil {
		return
	}
	page, err := appState.Messages.Archive(c.Request.Context(), c.Query("page"))
	if err != nil {
		reqErr := router.NewRequestError(http.StatusInternalServerError, "failed to load archive", err)
		router.RespondWithError(c, reqErr.StatusCode, reqErr)
		return
	}
	logger.FromContext(c.Request.Context()).Debug("Archive page rendered",
		"page", page.Number, "total_pages", page.TotalPages)
	c.Render(http.StatusOK, render.HTML{Template: pages, Name: "archive.html", Data: archiveView{Page: page}})
}
