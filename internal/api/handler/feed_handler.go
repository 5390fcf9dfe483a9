package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/travelfeed/internal/feed"
	"github.com/d60-Lab/travelfeed/internal/service"
	"github.com/d60-Lab/travelfeed/pkg/response"
)

type feedQuery struct {
	Audience string `form:"audience" binding:"omitempty,audience"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1"`
}

func (q feedQuery) audience() feed.Audience {
	if q.Audience == "" {
		return feed.AudienceFollowing
	}
	return feed.Audience(q.Audience)
}

// GetFeed 加载首页
// @Summary 加载 feed 首页
// @Tags Feed
// @Produce json
// @Security BearerAuth
// @Param audience query string false "following | promoted" default(following)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=service.FeedView}
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /api/v1/feed [get]
func (h *Handler) GetFeed(c *gin.Context) {
	var q feedQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	sess, ok := h.session(c)
	if !ok {
		return
	}
	view, err := sess.LoadFeed(c.Request.Context(), q.audience(), h.pageSize(q.PageSize))
	if err != nil {
		h.feedError(c, sess, q.audience(), err)
		return
	}
	response.Success(c, view)
}

// GetMoreFeed 加载下一页
// @Summary 加载 feed 下一页（仅返回新增条目）
// @Tags Feed
// @Produce json
// @Security BearerAuth
// @Param audience query string false "following | promoted" default(following)
// @Success 200 {object} response.Response{data=service.FeedView}
// @Failure 400 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /api/v1/feed/more [get]
func (h *Handler) GetMoreFeed(c *gin.Context) {
	var q feedQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	sess, ok := h.session(c)
	if !ok {
		return
	}
	view, err := sess.LoadMore(c.Request.Context(), q.audience())
	if err != nil {
		h.feedError(c, sess, q.audience(), err)
		return
	}
	response.Success(c, view)
}

// 被新请求取代的结果不返回，改为返回当前已加载的状态
func (h *Handler) feedError(c *gin.Context, sess *service.Session, aud feed.Audience, err error) {
	if service.IsStale(err) {
		view, _ := sess.CurrentFeed(aud)
		response.Success(c, view)
		return
	}
	response.Error(c, err)
}
