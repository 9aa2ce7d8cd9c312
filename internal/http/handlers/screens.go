package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"marketadmin/internal/export"
	"marketadmin/internal/listing"
	"marketadmin/internal/services"
	"marketadmin/internal/utils"
)

// Screens exposes the screen service over HTTP.
type Screens struct {
	Svc *services.ScreenService
}

// GET /api/screens
func (h Screens) List(c *gin.Context) {
	req := request(c)
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"resources": h.Svc.Catalog(req),
		"open":      h.Svc.List(req),
	})
}

// GET /api/screens/:resource
func (h Screens) View(c *gin.Context) {
	q := c.Request.URL.Query()
	cr, err := parseCriteria(q)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	page, err := intParam(q, "page", 1)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	size, err := intParam(q, "pageSize", 0)
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	screen, view, err := h.Svc.View(c.Request.Context(), request(c), c.Param("resource"), cr, page, size)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"screen":     screen.Meta(),
		"rows":       view.Rows,
		"pagination": view.Pagination,
	})
}

// POST /api/screens/:resource/refresh
func (h Screens) Refresh(c *gin.Context) {
	screen, err := h.Svc.Refresh(c.Request.Context(), request(c), c.Param("resource"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "screen": screen.Meta()})
}

// POST /api/screens/:resource/items
func (h Screens) Create(c *gin.Context) {
	raw, ok := readBody(c)
	if !ok {
		return
	}
	item, err := h.Svc.Create(c.Request.Context(), request(c), c.Param("resource"), raw)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "item": item})
}

// PUT|PATCH /api/screens/:resource/items/:id
func (h Screens) Update(c *gin.Context) {
	var patch listing.Patch
	if !BindJSONOrError(c, &patch) {
		return
	}
	if len(patch) == 0 {
		RespondError(c, http.StatusBadRequest, "nothing to update")
		return
	}
	item, err := h.Svc.Update(c.Request.Context(), request(c), c.Param("resource"), c.Param("id"), patch)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "item": item})
}

// DELETE /api/screens/:resource/items/:id
func (h Screens) Delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), request(c), c.Param("resource"), c.Param("id")); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "deleted"})
}

// GET /api/screens/:resource/export?format=csv|xlsx|pdf
func (h Screens) Export(c *gin.Context) {
	q := c.Request.URL.Query()
	cr, err := parseCriteria(q)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	format := strings.ToLower(utils.Fallback(q.Get("format"), export.FormatCSV))

	var buf bytes.Buffer
	resource := c.Param("resource")
	if err := h.Svc.Export(c.Request.Context(), request(c), resource, format, cr, &buf); err != nil {
		RespondDomainError(c, err)
		return
	}
	name := fmt.Sprintf("%s-%s.%s", utils.SafeFilenamePart(strings.ToLower(resource)), utils.NowUTC().Format("20060102"), format)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, export.ContentType(format), buf.Bytes())
}

// DELETE /api/screens/:resource
func (h Screens) Close(c *gin.Context) {
	if !h.Svc.Close(request(c), c.Param("resource")) {
		RespondError(c, http.StatusNotFound, "screen is not open")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "screen closed"})
}
