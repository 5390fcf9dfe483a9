package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/travelfeed/internal/api/middleware"
	"github.com/d60-Lab/travelfeed/internal/service"
	"github.com/d60-Lab/travelfeed/pkg/response"
)

// PageLimits feed/people 分页大小
type PageLimits struct {
	Default int
	Max     int
	// People 用户搜索默认每页数量
	People int
}

type Handler struct {
	sessions   *service.SessionManager
	relService service.RelationshipService
	limits     PageLimits
}

func NewHandler(sessions *service.SessionManager, relService service.RelationshipService, limits PageLimits) *Handler {
	if limits.Default <= 0 {
		limits.Default = 20
	}
	if limits.Max < limits.Default {
		limits.Max = limits.Default
	}
	if limits.People <= 0 {
		limits.People = limits.Default
	}
	return &Handler{sessions: sessions, relService: relService, limits: limits}
}

// session 取当前用户会话；失败时已写响应
func (h *Handler) session(c *gin.Context) (*service.Session, bool) {
	s, err := h.sessions.Get(middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	return s, true
}

func (h *Handler) pageSize(requested int) int {
	if requested <= 0 {
		return h.limits.Default
	}
	return min(requested, h.limits.Max)
}

func (h *Handler) peoplePageSize(requested int) int {
	if requested <= 0 {
		return h.limits.People
	}
	return min(requested, h.limits.Max)
}
