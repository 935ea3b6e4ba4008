package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/emrgen/studydoc/internal/model"
	"github.com/emrgen/studydoc/internal/provider"
	"github.com/emrgen/studydoc/internal/service"
)

type DocumentHandler struct {
	docs *service.DocumentService
}

func NewDocumentHandler(docs *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{docs: docs}
}

func (h *DocumentHandler) Register(r gin.IRoutes) {
	r.POST("/documents", h.Upload)
	r.GET("/documents", h.List)
	r.GET("/documents/:id", h.Get)
	r.DELETE("/documents/:id", h.Delete)
	r.POST("/documents/:id/flashcards/regenerate", h.RegenerateFlashcards)
	r.POST("/documents/:id/summary/regenerate", h.RegenerateSummary)
}

func (h *DocumentHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}
	defer src.Close()

	doc, err := h.docs.Upload(c.Request.Context(), ownerID(c), file.Filename, file.Size, src)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "document uploaded successfully",
		"document": docJSON(doc),
	})
}

func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.docs.List(c.Request.Context(), ownerID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]documentJSON, len(docs))
	for i, doc := range docs {
		out[i] = docJSON(doc)
	}

	c.JSON(http.StatusOK, gin.H{"documents": out})
}

func (h *DocumentHandler) Get(c *gin.Context) {
	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
		return
	}

	detail, err := h.docs.Get(c.Request.Context(), ownerID(c), docID)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := gin.H{"document": docJSON(detail.Document)}
	if detail.Summary != nil {
		resp["summary"] = summaryJSON(detail.Summary)
	}
	cards := make([]flashcardJSON, len(detail.Flashcards))
	for i, card := range detail.Flashcards {
		cards[i] = cardJSON(card)
	}
	resp["flashcards"] = cards
	if detail.Set != nil {
		resp["flashcard_set"] = setJSON(detail.Set)
	}

	c.JSON(http.StatusOK, resp)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
		return
	}

	if err := h.docs.Delete(c.Request.Context(), ownerID(c), docID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "document deleted successfully"})
}

func (h *DocumentHandler) RegenerateFlashcards(c *gin.Context) {
	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
		return
	}

	count := provider.DefaultFlashcards
	if raw := c.Query("count"); raw != "" {
		count, err = strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid count"})
			return
		}
	}

	cards, err := h.docs.RegenerateFlashcards(c.Request.Context(), ownerID(c), docID, count)
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]flashcardJSON, len(cards))
	for i, card := range cards {
		out[i] = cardJSON(card)
	}

	c.JSON(http.StatusOK, gin.H{"flashcards": out})
}

func (h *DocumentHandler) RegenerateSummary(c *gin.Context) {
	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
		return
	}

	summary, err := h.docs.RegenerateSummary(c.Request.Context(), ownerID(c), docID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summaryJSON(summary)})
}

func writeError(c *gin.Context, err error) {
	var perr *provider.Error

	switch {
	case errors.Is(err, service.ErrDocumentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotDocumentOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotPDF),
		errors.Is(err, service.ErrFileTooLarge),
		errors.Is(err, service.ErrInvalidCardCount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrDocumentNotReady):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &perr):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		logrus.Errorf("internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

type documentJSON struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	FileName    string     `json:"file_name"`
	FileSize    int64      `json:"file_size"`
	Pages       int        `json:"pages"`
	Status      string     `json:"status"`
	FailReason  string     `json:"fail_reason,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

func docJSON(doc *model.Document) documentJSON {
	return documentJSON{
		ID:          doc.ID,
		Title:       doc.Title,
		FileName:    doc.FileName,
		FileSize:    doc.FileSize,
		Pages:       doc.Pages,
		Status:      doc.Status,
		FailReason:  doc.FailReason,
		CreatedAt:   doc.CreatedAt,
		ProcessedAt: doc.ProcessedAt,
	}
}

func summaryJSON(summary *model.Summary) gin.H {
	keyPoints, err := summary.GetKeyPoints()
	if err != nil {
		logrus.Warnf("corrupted key points on summary %s: %v", summary.ID, err)
	}
	insights, err := summary.GetInsights()
	if err != nil {
		logrus.Warnf("corrupted insights on summary %s: %v", summary.ID, err)
	}
	examples, err := summary.GetExamples()
	if err != nil {
		logrus.Warnf("corrupted examples on summary %s: %v", summary.ID, err)
	}

	return gin.H{
		"id":          summary.ID,
		"document_id": summary.DocumentID,
		"summary":     summary.Body,
		"key_points":  keyPoints,
		"insights":    insights,
		"examples":    examples,
		"created_at":  summary.CreatedAt,
		"updated_at":  summary.UpdatedAt,
	}
}

type flashcardJSON struct {
	ID         string    `json:"id"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Difficulty string    `json:"difficulty"`
	Order      int       `json:"order"`
	CreatedAt  time.Time `json:"created_at"`
}

func cardJSON(card *model.Flashcard) flashcardJSON {
	return flashcardJSON{
		ID:         card.ID,
		Question:   card.Question,
		Answer:     card.Answer,
		Difficulty: card.Difficulty,
		Order:      card.OrderIndex,
		CreatedAt:  card.CreatedAt,
	}
}

func setJSON(set *model.FlashcardSet) gin.H {
	return gin.H{
		"id":         set.ID,
		"name":       set.Name,
		"card_count": set.CardCount,
		"is_active":  set.IsActive,
		"created_at": set.CreatedAt,
	}
}
