package moderation

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"modpanel/internal/audit"
	"modpanel/internal/auth"
	"modpanel/internal/pipeline"
	"modpanel/internal/titles"
	"modpanel/pkg/models"
)

type Handler struct {
	Store       *Store
	Coordinator *Coordinator
	Titles      *titles.Resolver
	Audit       *audit.Repo

	// panel context defaults, overridable per request
	SiteName string
	Lang     string
}

func NewHandler(store *Store, co *Coordinator, resolver *titles.Resolver, auditRepo *audit.Repo, siteName, lang string) *Handler {
	return &Handler{
		Store:       store,
		Coordinator: co,
		Titles:      resolver,
		Audit:       auditRepo,
		SiteName:    siteName,
		Lang:        lang,
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/comments", h.listComments)
	rg.GET("/stats", h.stats)
	rg.GET("/context", h.panelContext)
	rg.POST("/refresh", h.refresh)
	rg.POST("/comments/:id/status", h.setStatus)
	rg.POST("/comments/:id/delete-request", h.requestDelete)
	rg.POST("/delete-cancel", h.cancelDelete)
	rg.POST("/delete-confirm", h.confirmDelete)
	rg.GET("/audit", h.listAudit)
	rg.GET("/comments/:id/audit", h.commentAudit)
}

type commentView struct {
	ID          string `json:"id"`
	Author      string `json:"author"`
	Body        string `json:"body"`
	Status      string `json:"status"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	ParentID    string `json:"parent_id"`
	AuthorEmail string `json:"author_email,omitempty"`
	IPHash      string `json:"ip_hash,omitempty"`
	UserAgent   string `json:"user_agent,omitempty"`
}

type groupView struct {
	ParentID string        `json:"parent_id"`
	Title    string        `json:"title"`
	Comments []commentView `json:"comments"`
}

func (h *Handler) toView(r models.CommentRecord) commentView {
	date, clock := pipeline.FormatDateTime(r.Created)
	return commentView{
		ID:          r.ID,
		Author:      r.Author,
		Body:        r.Body,
		Status:      r.Status,
		Date:        date,
		Time:        clock,
		ParentID:    r.ParentID,
		AuthorEmail: r.AuthorEmail,
		IPHash:      r.IPHash,
		UserAgent:   r.UserAgent,
	}
}

func (h *Handler) title(parentID string) string {
	if h.Titles == nil {
		return parentID
	}
	return h.Titles.Title(parentID)
}

func (h *Handler) listComments(c *gin.Context) {
	filter := pipeline.NormalizeFilter(c.Query("filter"))
	if filter == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filter"})
		return
	}

	snap := h.Store.Snapshot()
	groups := pipeline.FilterAndGroup(snap.Comments, filter)

	out := make([]groupView, 0, len(groups))
	for _, g := range groups {
		gv := groupView{
			ParentID: g.ParentID,
			Title:    h.title(g.ParentID),
			Comments: make([]commentView, 0, len(g.Comments)),
		}
		for _, r := range g.Comments {
			gv.Comments = append(gv.Comments, h.toView(r))
		}
		out = append(out, gv)
	}

	// stats always cover the full set regardless of filter
	c.JSON(http.StatusOK, gin.H{
		"filter":     filter,
		"groups":     out,
		"stats":      snap.Stats,
		"fetched_at": snap.FetchedAt.Format(time.RFC3339),
	})
}

func (h *Handler) stats(c *gin.Context) {
	snap := h.Store.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"stats":      snap.Stats,
		"fetched_at": snap.FetchedAt.Format(time.RFC3339),
	})
}

func (h *Handler) panelContext(c *gin.Context) {
	site := strings.TrimSpace(c.Query("site"))
	if site == "" {
		site = h.SiteName
	}
	if site == "" {
		site = "Unknown Site"
	}

	lang := strings.TrimSpace(c.Query("lang"))
	if lang == "" {
		lang = h.Lang
	}
	if lang == "" {
		lang = "en"
	}

	c.JSON(http.StatusOK, gin.H{"site": site, "lang": lang})
}

func (h *Handler) refresh(c *gin.Context) {
	if err := h.Store.Refresh(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "refresh failed"})
		return
	}
	snap := h.Store.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"stats":      snap.Stats,
		"fetched_at": snap.FetchedAt.Format(time.RFC3339),
	})
}

type setStatusReq struct {
	Status string `json:"status"`
}

func (h *Handler) setStatus(c *gin.Context) {
	var req setStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if !ValidStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	id := c.Param("id")
	if err := h.Coordinator.SetStatus(c.Request.Context(), actorName(c), id, req.Status); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "status change failed"})
		return
	}

	snap := h.Store.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status": req.Status,
		"stats":  snap.Stats,
	})
}

func (h *Handler) requestDelete(c *gin.Context) {
	id := c.Param("id")
	token, exp, err := h.Coordinator.RequestDelete(actorName(c), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown comment"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": exp.UTC().Format(time.RFC3339),
	})
}

type deleteTokenReq struct {
	Token string `json:"token"`
}

func (h *Handler) cancelDelete(c *gin.Context) {
	var req deleteTokenReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
		return
	}
	if !h.Coordinator.CancelDelete(req.Token) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

func (h *Handler) confirmDelete(c *gin.Context) {
	var req deleteTokenReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
		return
	}
	if err := h.Coordinator.ConfirmDelete(c.Request.Context(), actorName(c), req.Token); err != nil {
		if strings.Contains(err.Error(), "delete token") {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown or expired token"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "delete failed"})
		return
	}

	snap := h.Store.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status": "deleted",
		"stats":  snap.Stats,
	})
}

func (h *Handler) listAudit(c *gin.Context) {
	if h.Audit == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "audit disabled"})
		return
	}

	limit := parseInt(c.Query("limit"), 50)
	offset := parseInt(c.Query("offset"), 0)

	entries, total, err := h.Audit.List(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total":   total,
		"entries": entries,
	})
}

func (h *Handler) commentAudit(c *gin.Context) {
	if h.Audit == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "audit disabled"})
		return
	}

	entries, err := h.Audit.ListByComment(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func actorName(c *gin.Context) string {
	if claims := auth.MustGetClaims(c); claims != nil {
		return claims.Username
	}
	return "unknown"
}

func parseInt(s string, def int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
