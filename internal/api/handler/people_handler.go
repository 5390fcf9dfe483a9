package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/travelfeed/internal/domain"
	"github.com/d60-Lab/travelfeed/internal/service"
	"github.com/d60-Lab/travelfeed/pkg/response"
)

type peopleQuery struct {
	Q        string `form:"q" binding:"required"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1"`
}

// SearchPeople 按用户名/昵称前缀搜索
// @Summary 搜索用户
// @Tags 用户
// @Security BearerAuth
// @Param q query string true "前缀"
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=service.PeoplePage}
// @Failure 400 {object} response.Response
// @Router /api/v1/people [get]
func (h *Handler) SearchPeople(c *gin.Context) {
	var q peopleQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	sess, ok := h.session(c)
	if !ok {
		return
	}
	page, err := sess.SearchPeople(c.Request.Context(), q.Q, h.peoplePageSize(q.PageSize))
	if err != nil {
		if service.IsStale(err) {
			state, _ := sess.People.State()
			response.Success(c, state)
			return
		}
		response.Error(c, err)
		return
	}
	response.Success(c, page)
}

// MorePeople 搜索结果下一页
// @Summary 搜索用户下一页
// @Tags 用户
// @Security BearerAuth
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 400 {object} response.Response
// @Router /api/v1/people/more [get]
func (h *Handler) MorePeople(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	list, err := sess.MorePeople(c.Request.Context())
	if err != nil {
		if !service.IsStale(err) {
			response.Error(c, err)
			return
		}
		list = []domain.UserSummary{}
	}
	state, _ := sess.People.State()
	response.Success(c, gin.H{"list": list, "has_more": state.HasMore})
}
