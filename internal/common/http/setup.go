package http

import (
	"net/http"

	"github.com/ventionteams/medfast-credentials/internal/common/httpmetrics"
	"github.com/ventionteams/medfast-credentials/internal/common/logger"
)

func BuildBaseHandler(appName string, log *logger.Logger, handler http.Handler) http.Handler {
	metrics := httpmetrics.New(appName)
	recovery := RecoveryMiddleware(log)

	return recovery(TraceIDMiddleware(metrics.Wrap(handler)))
}
