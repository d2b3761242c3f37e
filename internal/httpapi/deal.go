package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cardlink-engine/pkg/db/pagination"
	"cardlink-engine/pkg/errutil"
	"cardlink-engine/services/authorization"
	"cardlink-engine/services/deal"
)

type claimDealRequest struct {
	GlobalDealID string `json:"global_deal_id" binding:"required"`
	UserID       string `json:"user_id" binding:"required"`
	CardID       string `json:"card_id" binding:"required"`
	Partner      string `json:"partner" binding:"required"`
}

func handleClaimDeal(svc *deal.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req claimDealRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(errutil.ValidationFailed("invalid claim payload", nil))
			return
		}

		claim, err := svc.ClaimDeal(c.Request.Context(), deal.ClaimDealRequest{
			GlobalDealID: req.GlobalDealID,
			UserID:       req.UserID,
			CardID:       req.CardID,
			Partner:      authorization.Partner(req.Partner),
		})
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusCreated, claim)
	}
}

func handleSnapshotBatch(svc *deal.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		batch, err := svc.SnapshotBatch(c.Request.Context(), authorization.Partner(c.Param("partner")))
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusCreated, batch)
	}
}

func handleListBatches(svc *deal.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var page pagination.Pagination
		if err := c.ShouldBindQuery(&page); err != nil {
			_ = c.Error(errutil.ValidationFailed("invalid paging parameters", nil))
			return
		}

		p := authorization.Partner(c.Query("partner"))
		batches, info, err := svc.ListBatches(c.Request.Context(), p, page)
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"batches": batches, "page_info": info})
	}
}

func handleGetBatch(svc *deal.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		batchID, err := strconv.ParseInt(c.Param("batch_id"), 10, 64)
		if err != nil {
			_ = c.Error(errutil.ValidationFailed("batch id must be numeric", nil))
			return
		}

		batch, err := svc.GetBatch(c.Request.Context(), batchID)
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusOK, batch)
	}
}
