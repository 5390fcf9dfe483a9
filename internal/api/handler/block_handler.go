package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/travelfeed/pkg/response"
)

type blockRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// ListBlocks 当前用户的屏蔽列表
// @Summary 屏蔽列表
// @Tags 屏蔽
// @Security BearerAuth
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 503 {object} response.Response
// @Router /api/v1/blocks [get]
func (h *Handler) ListBlocks(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	ids, err := sess.BlockedIDs(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"list": ids})
}

// Block 屏蔽用户，立即生效
// @Summary 屏蔽用户
// @Tags 屏蔽
// @Accept json
// @Security BearerAuth
// @Param request body blockRequest true "被屏蔽用户"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /api/v1/blocks [post]
func (h *Handler) Block(c *gin.Context) {
	var req blockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	sess, ok := h.session(c)
	if !ok {
		return
	}
	if err := sess.Block(c.Request.Context(), req.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// Unblock 取消屏蔽
// @Summary 取消屏蔽
// @Tags 屏蔽
// @Security BearerAuth
// @Param user_id path string true "用户ID"
// @Success 200 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /api/v1/blocks/{user_id} [delete]
func (h *Handler) Unblock(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	if err := sess.Unblock(c.Request.Context(), c.Param("user_id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
