package session_routers

import (
	"github.com/gin-gonic/gin"

	sessionApi "github.com/speakwise/api/session-api/api/session"
	"github.com/speakwise/config"
	"github.com/speakwise/pkg/commons"
	"github.com/speakwise/pkg/connectors"
)

func SessionApiRoutes(
	cfg *config.AppConfig, engine *gin.Engine, logger commons.Logger,
	postgres connectors.PostgresConnector,
) {
	apiv1 := engine.Group("v1/session")
	sApi := sessionApi.NewSessionApi(cfg, logger, postgres)
	{
		apiv1.POST("/create", sApi.Create)
		apiv1.POST("/:sessionId/audio", sApi.UploadAudio)
		apiv1.GET("/:sessionId", sApi.Get)
		apiv1.DELETE("/:sessionId", sApi.Delete)
	}
}
