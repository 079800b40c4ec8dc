package server

import (
	"net/http"
	"time"

	"github.com/deepnoodle-ai/docdb/wire"
	"github.com/gin-gonic/gin"
)

func status(tx *Transaction) *wire.TransactionStatus {
	return &wire.TransactionStatus{ID: tx.ID, Name: tx.Name, ExpiresAt: tx.ExpiresAt}
}

func (s *Server) openTransaction(ctx *gin.Context) {
	seconds, err := queryInt(ctx, wire.ParamTimeLimit, 0)
	if err == nil && seconds < 0 {
		err = badRequest("timeLimit must not be negative")
	}
	if err != nil {
		fail(ctx, err)
		return
	}
	tx := s.txns.Open(ctx.Query(wire.ParamName), time.Duration(seconds)*time.Second)
	ctx.Header("Location", TransactionsURL+"/"+tx.ID)
	ctx.JSON(http.StatusCreated, status(tx))
}

func (s *Server) transactionStatus(ctx *gin.Context) {
	tx, err := s.txns.Get(ctx.Param("txid"))
	if err != nil {
		fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, status(tx))
}

func (s *Server) finishTransaction(ctx *gin.Context) {
	txid := ctx.Param("txid")
	var err error
	switch result := ctx.Query(wire.ParamResult); result {
	case "commit":
		err = s.txns.Commit(ctx, txid)
	case "rollback":
		err = s.txns.Rollback(txid)
	default:
		err = badRequest("result must be commit or rollback, not %q", result)
	}
	if err != nil {
		fail(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
