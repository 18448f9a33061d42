package http

import (
	"bytes"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"expense-tracker/internal/domain"
	"expense-tracker/internal/service"
)

// flexNumber accepts a JSON number or a numeric string, as browsers often
// submit form values as strings.
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(bytes.Trim(b, `"`)))
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("not a number: %q", s)
	}
	*n = flexNumber(v)
	return nil
}

type addExpenseRequest struct {
	UserID      flexNumber `json:"userId" binding:"required"`
	Category    string     `json:"category" binding:"required"`
	Amount      flexNumber `json:"amount" binding:"required"`
	Description string     `json:"description"`
	Date        string     `json:"date"`
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

type ExpenseResponse struct {
	ID          int64   `json:"id"`
	UserID      int64   `json:"user_id"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
	CreatedAt   string  `json:"created_at"`
}

type CategoryTotalResponse struct {
	Category    string  `json:"category"`
	Count       int64   `json:"count"`
	TotalAmount float64 `json:"total_amount"`
}

type ExportResponse struct {
	Key          string  `json:"key"`
	Location     string  `json:"location"`
	URL          string  `json:"url"`
	Rows         int     `json:"rows,omitempty"`
	Size         int64   `json:"size"`
	LastModified *string `json:"last_modified,omitempty"`
}

func (h *Handler) addExpense(c *gin.Context) {
	var req addExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("User ID, category and amount are required"))
		return
	}
	userID := int64(req.UserID)
	if float64(userID) != float64(req.UserID) || userID <= 0 {
		c.JSON(http.StatusBadRequest, errorBody("Invalid user ID"))
		return
	}
	if !h.authorize(c, userID) {
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("Invalid date"))
		return
	}

	id, err := h.expenses.Add(c.Request.Context(), service.NewExpense{
		UserID:      userID,
		Category:    req.Category,
		Amount:      float64(req.Amount),
		Description: req.Description,
		Date:        date,
	})
	if err != nil {
		h.respondError(c, err, "Failed to add expense")
		return
	}

	h.log(c).WithFields(map[string]any{"user_id": userID, "expense_id": id}).Info("expense added")
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Expense added successfully!",
		"id":      id,
	})
}

func (h *Handler) listExpenses(c *gin.Context) {
	userID, ok := pathID(c, "userId", "Invalid user ID")
	if !ok || !h.authorize(c, userID) {
		return
	}

	expenses, err := h.expenses.List(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, "Failed to fetch expenses")
		return
	}

	resp := make([]ExpenseResponse, len(expenses))
	for i := range expenses {
		resp[i] = expenseToResponse(expenses[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) expenseSummary(c *gin.Context) {
	userID, ok := pathID(c, "userId", "Invalid user ID")
	if !ok || !h.authorize(c, userID) {
		return
	}

	summary, err := h.expenses.Summary(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, "Failed to fetch summary")
		return
	}

	byCategory := make([]CategoryTotalResponse, len(summary.ByCategory))
	for i, ct := range summary.ByCategory {
		byCategory[i] = CategoryTotalResponse{
			Category:    ct.Category,
			Count:       ct.Count,
			TotalAmount: ct.TotalAmount,
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"byCategory": byCategory,
		"grandTotal": summary.GrandTotal,
	})
}

func (h *Handler) deleteExpense(c *gin.Context) {
	userID, ok := pathID(c, "userId", "Invalid user ID")
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "Invalid expense ID")
	if !ok || !h.authorize(c, userID) {
		return
	}

	if err := h.expenses.Delete(c.Request.Context(), userID, id); err != nil {
		h.respondError(c, err, "Failed to delete expense")
		return
	}

	h.log(c).WithFields(map[string]any{"user_id": userID, "expense_id": id}).Info("expense deleted")
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Expense deleted successfully",
	})
}

func (h *Handler) exportExpenses(c *gin.Context) {
	userID, ok := pathID(c, "userId", "Invalid user ID")
	if !ok || !h.authorize(c, userID) {
		return
	}

	export, err := h.exports.Export(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, "Failed to export expenses")
		return
	}

	h.log(c).WithFields(map[string]any{"user_id": userID, "location": export.Location}).Info("expenses exported")
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"export":  exportToResponse(*export),
	})
}

func (h *Handler) listExports(c *gin.Context) {
	userID, ok := pathID(c, "userId", "Invalid user ID")
	if !ok || !h.authorize(c, userID) {
		return
	}

	exports, err := h.exports.ListExports(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, "Failed to list exports")
		return
	}

	resp := make([]ExportResponse, len(exports))
	for i := range exports {
		resp[i] = exportToResponse(exports[i])
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"exports": resp,
	})
}

func expenseToResponse(e domain.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:          e.ID,
		UserID:      e.UserID,
		Category:    e.Category,
		Amount:      e.Amount,
		Description: e.Description,
		Date:        e.Date.UTC().Format(time.RFC3339),
		CreatedAt:   e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func exportToResponse(e service.Export) ExportResponse {
	resp := ExportResponse{
		Key:      e.Key,
		Location: e.Location,
		URL:      e.URL,
		Rows:     e.Rows,
		Size:     e.Size,
	}
	if e.LastModified != nil && !e.LastModified.IsZero() {
		v := e.LastModified.Format(time.RFC3339)
		resp.LastModified = &v
	}
	return resp
}
