package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/iancoleman/strcase"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/stakewatch/stakewatch/internal/app"
	"github.com/stakewatch/stakewatch/internal/core"
)

var _ QueryController = (*Controller)(nil)

var errUnknownOrderColumn = errors.New("unknown order column")

type Controller struct {
	svc     app.QueryService
	crawler app.CrawlerService
}

func NewController(svc app.QueryService, crawler app.CrawlerService) *Controller {
	return &Controller{svc: svc, crawler: crawler}
}

func paramErr(ctx *gin.Context, param string, err error) {
	ctx.IndentedJSON(http.StatusBadRequest, gin.H{"param": param, "error": err.Error()})
}

func internalErr(ctx *gin.Context, err error) {
	log.Error().Str("path", ctx.FullPath()).Err(err).Msg("internal server error")
	ctx.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func getOffsetLimit(ctx *gin.Context) (int, int, error) {
	o, err := strconv.ParseInt(ctx.Query("offset"), 10, 64)
	if err != nil {
		return 0, 0, err
	}
	l, err := strconv.ParseInt(ctx.Query("limit"), 10, 64)
	if err != nil {
		return 0, 0, err
	}
	return int(o), int(l), nil
}

// orderColumns whitelists user-supplied sort keys; camelCase input is
// accepted and normalized.
var orderColumns = map[string]bool{
	"height":     true,
	"tx_time":    true,
	"created_at": true,
}

func (c *Controller) GetAccounts(ctx *gin.Context) {
	var filter core.AccountFilter

	if err := ctx.ShouldBindQuery(&filter); err != nil {
		paramErr(ctx, "account_filter", err)
		return
	}

	offset, limit, err := getOffsetLimit(ctx)
	if err != nil {
		paramErr(ctx, "offset_limit", err)
		return
	}

	ret, err := c.svc.GetAccounts(ctx, &filter, offset, limit)
	if err != nil {
		internalErr(ctx, err)
		return
	}
	ctx.IndentedJSON(http.StatusOK, ret)
}

type addAccountRequest struct {
	Address       string `json:"address" binding:"required"`
	ValidatorAddr string `json:"validator_addr"`
	RewardAddr    string `json:"reward_addr"`
	AlertsEnabled bool   `json:"alerts_enabled"`
}

func (c *Controller) AddAccount(ctx *gin.Context) {
	var req addAccountRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		paramErr(ctx, "account", err)
		return
	}

	acc := &core.Account{
		Address:       req.Address,
		ValidatorAddr: req.ValidatorAddr,
		RewardAddr:    req.RewardAddr,
		AlertsEnabled: req.AlertsEnabled,
	}
	if err := c.svc.AddAccount(ctx, acc); err != nil {
		internalErr(ctx, err)
		return
	}
	ctx.IndentedJSON(http.StatusCreated, acc)
}

func (c *Controller) GetTransactions(ctx *gin.Context) {
	var filter core.TxRecordFilter

	if err := ctx.ShouldBindQuery(&filter); err != nil {
		paramErr(ctx, "tx_filter", err)
		return
	}

	if order := ctx.Query("order"); order != "" {
		col := strcase.ToSnake(order)
		if !orderColumns[col] {
			paramErr(ctx, "order", errUnknownOrderColumn)
			return
		}
		filter.OrderBy = col
	}

	offset, limit, err := getOffsetLimit(ctx)
	if err != nil {
		paramErr(ctx, "offset_limit", err)
		return
	}

	ret, err := c.svc.GetRecords(ctx, &filter, offset, limit)
	if err != nil {
		internalErr(ctx, err)
		return
	}
	ctx.IndentedJSON(http.StatusOK, ret)
}

// TriggerSync starts an on-demand fleet pass in the background. A
// pass already holding the fleet lock makes it a no-op: passes never
// queue.
func (c *Controller) TriggerSync(ctx *gin.Context) {
	if c.crawler == nil {
		ctx.IndentedJSON(http.StatusServiceUnavailable, gin.H{"error": "sync is not configured"})
		return
	}

	go c.crawler.SyncNow()
	ctx.IndentedJSON(http.StatusAccepted, gin.H{"status": "sync pass requested"})
}
