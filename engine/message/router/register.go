package msgrouter

import "github.com/gin-gonic/gin"

// Register mounts the board pages on web and the JSON API on apiBase.
// postGuard runs before every handler that stores a message.
func Register(web gin.IRouter, apiBase *gin.RouterGroup, postGuard ...gin.HandlerFunc) {
	// GET /
	// Latest message and the submission form
	web.GET("/", showIndex)

	// POST /
	// Form submission; redirects to the archive on success
	web.POST("/", guarded(postGuard, submitMessage)...)

	// GET /archive?page=N
	// Paginated archive, newest first
	web.GET("/archive", showArchive)

	messagesGroup := apiBase.Group("/messages")
	{
		// GET /api/v0/messages
		// List one archive page
		messagesGroup.GET("", listMessages)

		// GET /api/v0/messages/latest
		// Get the newest message
		messagesGroup.GET("/latest", getLatestMessage)

		// POST /api/v0/messages
		// Store a new message
		messagesGroup.POST("", guarded(postGuard, createMessage)...)
	}

	// GET /api/v0/routing
	// Describe how records are routed between databases
	apiBase.GET("/routing", getRouting)
}

func guarded(guard []gin.HandlerFunc, handler gin.HandlerFunc) []gin.HandlerFunc {
	chain := make([]gin.HandlerFunc, 0, len(guard)+1)
	chain = append(chain, guard...)
	return append(chain, handler)
}
