package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"scaffolder/internal/catalog"
	"scaffolder/internal/generate"
	"scaffolder/internal/wizard"
)

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler { return &HealthHandler{} }

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// ScaffoldHandler serves the wizard steps and the archive download.
type ScaffoldHandler struct {
	cat *catalog.Catalog
	gen *generate.Generator
}

func NewScaffoldHandler(gen *generate.Generator) *ScaffoldHandler {
	cat := gen.Catalog
	if cat == nil {
		cat = catalog.Default()
	}
	return &ScaffoldHandler{cat: cat, gen: gen}
}

// StepsResponse is the wizard state after replaying the selected ids.
type StepsResponse struct {
	Selections []string          `json:"selections"`
	Steps      []wizard.StepView `json:"steps"`
	Complete   bool              `json:"complete"`
}

// GET /api/steps?selected=windows,vscode
func (h *ScaffoldHandler) Steps(c *gin.Context) {
	ids := wizard.ParseIDs(c.Query("selected"))
	s, err := wizard.Replay(h.cat, ids)
	if err != nil {
		RespondError(c, http.StatusBadRequest, string(generate.EContract), err)
		return
	}
	RespondOK(c, StepsResponse{
		Selections: s.Selections(),
		Steps:      s.View(),
		Complete:   s.Complete(),
	})
}

// GET /api/combinations
func (h *ScaffoldHandler) Combinations(c *gin.Context) {
	RespondOK(c, gin.H{"combinations": h.cat.Combinations()})
}

type GenerateRequest struct {
	Selections []string `json:"selections" binding:"required"`
}

// POST /api/generate
func (h *ScaffoldHandler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, string(generate.EContract), err)
		return
	}
	if _, err := h.gen.Run(c.Request.Context(), req.Selections, attachment{c}); err != nil {
		respondGenerateError(c, err)
		return
	}
}

// attachment delivers the archive as the response body.
type attachment struct {
	c *gin.Context
}

func (a attachment) Deliver(_ context.Context, name string, blob []byte) error {
	a.c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	a.c.Data(http.StatusOK, "application/zip", blob)
	return nil
}
