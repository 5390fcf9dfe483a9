package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/travelfeed/internal/domain"
	"github.com/d60-Lab/travelfeed/pkg/response"
)

type voteRequest struct {
	ItemID string `json:"item_id" binding:"required"`
	Type   string `json:"type" binding:"required,votetype"`
}

// Vote 切换投票
// @Summary 赞/踩切换（同向再次提交即取消）
// @Tags 投票
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body voteRequest true "投票"
// @Success 200 {object} response.Response{data=engagement.Snapshot}
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /api/v1/votes [post]
func (h *Handler) Vote(c *gin.Context) {
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	sess, ok := h.session(c)
	if !ok {
		return
	}
	snap, err := sess.Vote(c.Request.Context(), req.ItemID, domain.VoteType(req.Type))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, snap)
}
