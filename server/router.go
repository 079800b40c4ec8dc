package server

import (
	"net/http"
	"time"

	"github.com/deepnoodle-ai/docdb/slogger"
	"github.com/gin-gonic/gin"
)

const (
	DocumentsURL    = "/v1/documents"
	SearchURL       = "/v1/search"
	ValuesURL       = "/v1/values"
	QueryConfigURL  = "/v1/config/query"
	TransactionsURL = "/v1/transactions"
)

func (s *Server) setupRouter() {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(s.logger))

	router.GET("/ping", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "pong")
	})

	router.GET(DocumentsURL, s.getDocument)
	router.HEAD(DocumentsURL, s.headDocument)
	router.PUT(DocumentsURL, s.putDocument)
	router.DELETE(DocumentsURL, s.deleteDocument)

	router.POST(SearchURL, s.search)
	router.DELETE(SearchURL, s.deleteByQuery)

	router.GET(ValuesURL, s.valuesList)
	router.POST(ValuesURL+"/:name", s.values)

	router.GET(QueryConfigURL, s.optionsList)
	router.GET(QueryConfigURL+"/:name", s.queryOptions)

	router.POST(TransactionsURL, s.openTransaction)
	router.GET(TransactionsURL+"/:txid", s.transactionStatus)
	router.POST(TransactionsURL+"/:txid", s.finishTransaction)

	s.router = router
}

// requestLogger logs one line per request
func requestLogger(logger slogger.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Request = ctx.Request.WithContext(slogger.WithLogger(ctx.Request.Context(), logger))
		ctx.Next()

		attrs := []any{
			"method", ctx.Request.Method,
			"path", ctx.Request.URL.Path,
			"status", ctx.Writer.Status(),
			"duration", time.Since(start),
		}
		if uri := ctx.Query("uri"); uri != "" {
			attrs = append(attrs, "uri", uri)
		}
		if txid := ctx.Query("txid"); txid != "" {
			attrs = append(attrs, "txid", txid)
		}
		if len(ctx.Errors) > 0 {
			logger.Error("request failed", append(attrs, "error", ctx.Errors.String())...)
			return
		}
		logger.Debug("request", attrs...)
	}
}
