package session_routers

import (
	"github.com/gin-gonic/gin"

	pipelineApi "github.com/speakwise/api/session-api/api/pipeline"
	"github.com/speakwise/config"
	"github.com/speakwise/pkg/commons"
	"github.com/speakwise/pkg/connectors"
)

// PipelineApiRoutes mounts the scheduler-facing delivery endpoint. Returns
// an error when the configured providers cannot be built, which should stop
// startup.
func PipelineApiRoutes(
	cfg *config.AppConfig, engine *gin.Engine, logger commons.Logger,
	postgres connectors.PostgresConnector,
) error {
	pApi, err := pipelineApi.NewPipelineApi(cfg, logger, postgres)
	if err != nil {
		return err
	}
	apiv1 := engine.Group("v1/session/pipeline")
	{
		apiv1.POST("/run", pApi.Run)
	}
	return nil
}
